package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/betree/internal/config"
	"github.com/solatis/betree/internal/domain"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "load and validate an attribute domain config file",
	RunE:  runDomains,
}

func init() {
	rootCmd.AddCommand(domainsCmd)
}

func runDomains(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		return fmt.Errorf("betree: --config is required")
	}

	specs, err := config.LoadDomainConfig(configFile)
	if err != nil {
		return err
	}

	log := newLogger()
	cfg := config.BuildConfig(specs, domain.WithLogger(log))

	fmt.Printf("loaded %d attribute(s)\n", len(specs))
	for _, s := range specs {
		attr, ok := cfg.AttrDomainByName(s.Name)
		if !ok {
			continue
		}
		fmt.Printf("  %-24s %-10s var_id=%d allow_undefined=%v\n", s.Name, s.ValueType.String(), attr.VarID, s.AllowUndefined)
	}
	return nil
}
