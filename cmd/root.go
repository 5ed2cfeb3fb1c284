package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shop-auth",
	Short: "Shop authentication microservice",
	Long:  `The authentication service of the shop backend: registration, email confirmation, one-time login codes and JWT access/refresh token management.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
