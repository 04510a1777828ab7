package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ukydev/opsboard/internal/models"
	"github.com/ukydev/opsboard/internal/views"
)

func newLoginCmd(opts *options) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("OPSBOARD_PASSWORD")
			}
			var resp models.LoginResponse
			err := opts.client().post(cmd.Context(), "/api/auth/login", models.LoginRequest{
				Username: username,
				Password: password,
			}, &resp)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			log.WithFields(log.Fields{"user": resp.User.Username, "role": resp.User.Role}).Debug("logged in")
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (or set OPSBOARD_PASSWORD)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// seedFile is the YAML layout accepted by seed.
type seedFile struct {
	Employees []models.EmployeeRequest `yaml:"employees"`
	Vehicles  []models.VehicleRequest  `yaml:"vehicles"`
}

func newSeedCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create employees and vehicles from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seed seedFile
			if err := readYAML(file, &seed); err != nil {
				return err
			}
			client := opts.client()
			ctx := cmd.Context()

			created, skipped := 0, 0
			for _, e := range seed.Employees {
				var out models.Employee
				if err := client.post(ctx, "/api/employees", e, &out); err != nil {
					if isStatus(err, http.StatusConflict) {
						log.WithField("name", e.Name).Warn("employee already exists, skipped")
						skipped++
						continue
					}
					return fmt.Errorf("create employee %q: %w", e.Name, err)
				}
				log.WithFields(log.Fields{"id": out.ID.Hex(), "name": out.Name}).Info("Created employee")
				created++
			}
			for _, v := range seed.Vehicles {
				var out models.Vehicle
				if err := client.post(ctx, "/api/vehicles", v, &out); err != nil {
					if isStatus(err, http.StatusConflict) {
						log.WithField("registration", v.Registration).Warn("vehicle already exists, skipped")
						skipped++
						continue
					}
					return fmt.Errorf("create vehicle %q: %w", v.Registration, err)
				}
				log.WithFields(log.Fields{"id": out.ID.Hex(), "registration": out.Registration}).Info("Created vehicle")
				created++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", created, skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with employees and vehicles")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newBankHolidaysCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank-holidays",
		Short: "Manage bank holidays",
	}

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank holidays from a YAML list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list []models.BankHoliday
			if err := readYAML(file, &list); err != nil {
				return err
			}
			client := opts.client()

			imported, skipped := 0, 0
			for _, bh := range list {
				if err := client.post(cmd.Context(), "/api/bank-holidays", bh, nil); err != nil {
					if isStatus(err, http.StatusConflict) {
						log.WithField("date", bh.Date).Debug("bank holiday already present")
						skipped++
						continue
					}
					return fmt.Errorf("import %s %s: %w", bh.Date, bh.Name, err)
				}
				imported++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
			return nil
		},
	}
	importCmd.Flags().StringVarP(&file, "file", "f", "", "YAML list of {date, name, region}")
	_ = importCmd.MarkFlagRequired("file")

	cmd.AddCommand(importCmd)
	return cmd
}

func newChecksCmd(opts *options) *cobra.Command {
	var date string
	var strict bool
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List vehicles out on a job without a walkaround check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/dashboard"
			if date != "" {
				path += "?date=" + url.QueryEscape(date)
			}
			var d views.Dashboard
			if err := opts.client().get(cmd.Context(), path, &d); err != nil {
				return fmt.Errorf("load dashboard: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(d.MissingChecks) == 0 {
				fmt.Fprintf(out, "%s: all vehicles checked\n", d.Date)
				return nil
			}
			fmt.Fprintf(out, "%s: %d vehicle(s) missing a check\n", d.Date, len(d.MissingChecks))
			for _, v := range d.MissingChecks {
				fmt.Fprintf(out, "  %s\t%s\n", v.Registration, v.Name)
			}
			if strict {
				return fmt.Errorf("%d vehicle(s) missing a check", len(d.MissingChecks))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to inspect, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any check is missing")
	return cmd
}

func readYAML(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
