package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Ning0612/jutil/internal/remote/gdrive"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize access to remote stores",
}

var authGDriveCmd = &cobra.Command{
	Use:   "gdrive",
	Short: "Authorize Google Drive access",
	Long: `Print a consent URL, read the authorization code and save the OAuth token
to gdrive.token_path. Needs gdrive.client_id and gdrive.client_secret.`,
	Args: cobra.NoArgs,
	RunE: runAuthGDrive,
}

func init() {
	authCmd.AddCommand(authGDriveCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthGDrive(cmd *cobra.Command, args []string) error {
	log, err := initLogger(nil)
	if err != nil {
		return err
	}
	if err := cfg.RequireGDrive(); err != nil {
		return err
	}

	auth := gdrive.NewAuthenticator(cfg.GDrive.ClientID, cfg.GDrive.ClientSecret, cfg.GDrive.TokenPath)
	if _, err := auth.Authenticate(cmd.Context(), os.Stdin, os.Stdout); err != nil {
		return err
	}
	log.Debug("token saved", "path", auth.TokenPath())
	return nil
}
