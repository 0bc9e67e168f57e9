package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/goliatone/go-auth-resolver"
	"github.com/spf13/cobra"
)

var hashStdin bool

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print the bcrypt hash stored in users.password_hash",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) > 0 {
			password = args[0]
		}

		if hashStdin {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			if scanner.Scan() {
				password = strings.TrimRight(scanner.Text(), "\r\n")
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	hashPasswordCmd.Flags().BoolVar(&hashStdin, "stdin", false, "Read the password from stdin")
}
