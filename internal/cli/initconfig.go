package cli

import (
	"fmt"

	"wikiroam/pkg/config"
)

// Execute implements goflags.Commander.
func (c *InitConfigCommand) Execute(args []string) error {
	if err := config.GenerateDefault(c.globals.Config); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}
	fmt.Printf("Config file generated: %s\n", c.globals.Config)
	return nil
}
