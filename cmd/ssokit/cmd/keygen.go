package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ditoolkit/ssokit/internal/crypto"
)

var keygenDir string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an RSA keypair for ID token signing",
	RunE: func(_ *cobra.Command, _ []string) error {
		key, err := crypto.GenerateRSAKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}

		if err := os.MkdirAll(keygenDir, 0o700); err != nil {
			return err
		}

		privatePath := filepath.Join(keygenDir, "private.pem")
		if err := os.WriteFile(privatePath, crypto.EncodePrivateKeyPEM(key), 0o600); err != nil {
			return err
		}

		publicPEM, err := crypto.EncodePublicKeyPEM(key)
		if err != nil {
			return err
		}
		publicPath := filepath.Join(keygenDir, "public.pem")
		if err := os.WriteFile(publicPath, publicPEM, 0o644); err != nil {
			return err
		}

		fmt.Printf("wrote %s and %s\n", privatePath, publicPath)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenDir, "out", "certs", "directory to write the keypair into")
	rootCmd.AddCommand(keygenCmd)
}
