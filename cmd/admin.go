package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/database"
	"github.com/opsre/gvmd/internal/model"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
	adminCredits  int
)

// adminCmd is the account administration command group.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage panel accounts from the command line",
}

// adminAddCmd creates or promotes an administrator account.
var adminAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create or promote an administrator account",
	Long: `Create an administrator account directly in the database. If the username
already exists the account is promoted to administrator, its password is
reset, and its balance is topped up to at least the given credits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck

		var account model.Account
		err = db.Where("username = ?", adminUsername).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = model.Account{
				Username: adminUsername,
				Email:    adminEmail,
				Role:     model.RoleAdmin,
				Credits:  adminCredits,
				Theme:    "dark",
			}
			if err := account.SetPassword(adminPassword); err != nil {
				return err
			}
			if err := db.Create(&account).Error; err != nil {
				return err
			}
			fmt.Printf("created administrator %s (id %d, credits %d)\n",
				account.Username, account.ID, account.Credits)
		case err != nil:
			return err
		default:
			account.Role = model.RoleAdmin
			if account.Credits < adminCredits {
				account.Credits = adminCredits
			}
			if err := account.SetPassword(adminPassword); err != nil {
				return err
			}
			if err := db.Save(&account).Error; err != nil {
				return err
			}
			fmt.Printf("promoted %s to administrator (credits %d)\n",
				account.Username, account.Credits)
		}

		return nil
	},
}

// adminListCmd lists all accounts.
var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all panel accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer database.Close(db) //nolint:errcheck

		var accounts []model.Account
		if err := db.Order("id").Find(&accounts).Error; err != nil {
			return err
		}

		rows := [][]string{}
		for _, a := range accounts {
			rows = append(rows, []string{
				strconv.FormatUint(uint64(a.ID), 10),
				a.Username, a.Email, a.Role,
				strconv.Itoa(a.Credits),
			})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
			Headers("ID", "Username", "Email", "Role", "Credits").
			Rows(rows...)

		fmt.Println(t)
		return nil
	},
}

func init() {
	adminAddCmd.Flags().StringVar(&adminUsername, "username", "admin", "administrator username")
	adminAddCmd.Flags().StringVar(&adminEmail, "email", "admin@gvmd.local", "administrator email")
	adminAddCmd.Flags().StringVar(&adminPassword, "password", "admin", "administrator password")
	adminAddCmd.Flags().IntVar(&adminCredits, "credits", 10000, "credit balance to grant")

	adminCmd.AddCommand(adminAddCmd)
	adminCmd.AddCommand(adminListCmd)
	rootCmd.AddCommand(adminCmd)
}
