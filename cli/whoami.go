package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"imchat/config"
	"imchat/crypto"
	"imchat/models"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the configured identity and credential fingerprint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = env.log.Sync() }()

		login, err := config.LoginConfig(env.cfg)
		if err != nil {
			return err
		}
		printIdentity(cmd.OutOrStdout(), env, login)
		return nil
	},
}

func printIdentity(out io.Writer, env *environment, login models.LoginConfig) {
	fingerprint := crypto.CredentialFingerprint(login.SDKAppID, login.UserID, login.UserSig)

	fmt.Fprintf(out, "Client ID:       %s\n", env.cfg.ClientID)
	fmt.Fprintf(out, "SDK App ID:      %d\n", login.SDKAppID)
	fmt.Fprintf(out, "User ID:         %s\n", login.UserID)
	fmt.Fprintf(out, "Fingerprint:     %s\n", crypto.FormatFingerprint(fingerprint))
	fmt.Fprintf(out, "Config File:     %s\n", env.cfgPath)
	fmt.Fprintf(out, "Data Directory:  %s\n", env.dataDir)
}
