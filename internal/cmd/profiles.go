package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/contourbg/internal/profile"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the built-in visual profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

var profilesShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print a built-in profile as YAML (a starting point for --profile-file)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesShow,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesShowCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, name := range profile.Names() {
		p, err := profile.Load(name, "")
		if err != nil {
			return err
		}
		marker := " "
		if name == profile.DefaultName {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-10s density=%-8s terrain=%-6s clock_step=%g\n",
			marker, name, p.Density.Policy, p.Terrain.Source, p.ClockStep)
	}
	return nil
}

func runProfilesShow(cmd *cobra.Command, args []string) error {
	data, err := profile.Raw(args[0])
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
