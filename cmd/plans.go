package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/opsre/gvmd/internal/catalog"
)

// plansCmd prints the plan catalog.
var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show the plan catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		rows := [][]string{}
		for _, p := range buildCatalog(cfg).Plans() {
			rows = append(rows, []string{
				p.Name,
				fmt.Sprintf("%d MB", p.MemoryMB),
				strconv.Itoa(p.CPUs),
				fmt.Sprintf("%d GB", p.StorageGB),
				strconv.Itoa(p.Prices[catalog.ProcessorIntel]),
				strconv.Itoa(p.Prices[catalog.ProcessorAMD]),
			})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("Plan", "Memory", "CPUs", "Storage", "Intel", "AMD").
			Rows(rows...)

		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}
