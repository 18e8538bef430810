package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/sheetplan/internal/sqlite"
	"github.com/mesh-intelligence/sheetplan/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize sheetplan storage",
		Long: "Create the configuration directory with a default config.yaml and the plan database.\n" +
			"A --data-dir given to init is recorded in config.yaml for later commands.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The root command has already written config.yaml.
			return a.withStore(func(_ *sqlite.Backend, cfg types.Config) error {
				configPath := filepath.Join(a.configDir, configFileBase)
				if a.flags.dataDir != "" {
					if err := setConfigValue(configPath, cfgKeyDataDir, cfg.DataDir); err != nil {
						return sysErr(fmt.Errorf("record data dir: %w", err))
					}
				}
				out := cmd.OutOrStdout()
				if a.flags.jsonMode {
					return writeJSON(out, map[string]string{
						"config":   configPath,
						"database": filepath.Join(cfg.DataDir, sqlite.DBFileName),
					})
				}
				fmt.Fprintln(out, "sheetplan initialized successfully")
				fmt.Fprintln(out, "  config:", a.configDir)
				fmt.Fprintln(out, "  data:  ", cfg.DataDir)
				return nil
			})
		},
	}
}

// setConfigValue sets a top-level key of a YAML file, keeping the file's
// other keys and its comments.
func setConfigValue(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: top level is not a mapping", path)
	}

	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			root.Content[i+1] = valueNode
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, valueNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
