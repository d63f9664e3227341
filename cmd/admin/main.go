package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/formvault/document-storage-backend/api/clients"
	"github.com/formvault/document-storage-backend/httpserver"
	"github.com/urfave/cli/v2"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "Storage server address to request",
}
var flagAdminPrivkey *cli.StringFlag = &cli.StringFlag{
	Name:  "admin-privkey-file",
	Value: "admin-private.pem",
	Usage: "Path to admin private key",
}
var flagAdminPubkey *cli.StringFlag = &cli.StringFlag{
	Name:  "admin-pubkey-file",
	Value: "admin-public.pem",
	Usage: "Path to admin public key",
}
var flagAdminsConfig *cli.StringFlag = &cli.StringFlag{
	Name:  "admins-file",
	Value: "admins.json",
	Usage: "Path to file to use for the server's admin keys configuration",
}

var flagStorageKind *cli.StringFlag = &cli.StringFlag{
	Name:  "kind",
	Value: "local",
	Usage: "Storage backend kind (local or remote)",
}
var flagStorageEndpoint *cli.StringFlag = &cli.StringFlag{
	Name:  "endpoint",
	Usage: "Remote storage endpoint URL",
}
var flagStorageBucket *cli.StringFlag = &cli.StringFlag{
	Name:  "bucket",
	Usage: "Remote storage bucket",
}
var flagStorageRegion *cli.StringFlag = &cli.StringFlag{
	Name:  "region",
	Usage: "Remote storage region",
}
var flagStorageAccessKey *cli.StringFlag = &cli.StringFlag{
	Name:  "access-key",
	Usage: "Remote storage access key",
}
var flagStorageSecretKey *cli.StringFlag = &cli.StringFlag{
	Name:  "secret-key",
	Usage: "Remote storage secret key",
}

// loadAdminCredentials derives the admin ID from the public key PEM and
// parses the private key. The ID scheme must match generate-admins-config.
func loadAdminCredentials(cCtx *cli.Context) (string, *clients.AdminClient, error) {
	publicKeyPEM, err := os.ReadFile(cCtx.String(flagAdminPubkey.Name))
	if err != nil {
		return "", nil, err
	}

	pubkeyHash := sha256.Sum256(publicKeyPEM)
	adminID := hex.EncodeToString(pubkeyHash[:])

	privateKeyPEM, err := os.ReadFile(cCtx.String(flagAdminPrivkey.Name))
	if err != nil {
		return "", nil, err
	}

	privateKey, err := httpserver.ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", nil, err
	}

	baseURL := cCtx.String(flagServerAddr.Name)
	return adminID, clients.NewAdminClient(baseURL, adminID, privateKey), nil
}

func main() {
	app := &cli.App{
		Name:           "storage admin client",
		Usage:          "",
		DefaultCommand: "get-config",
		Commands: []*cli.Command{
			&cli.Command{
				Name:        "get-config",
				Usage:       "",
				Description: "Fetch the active storage configuration (credentials redacted)",
				Flags: []cli.Flag{
					flagServerAddr,
					flagAdminPrivkey,
					flagAdminPubkey,
				},
				Action: func(cCtx *cli.Context) error {
					_, adminClient, err := loadAdminCredentials(cCtx)
					if err != nil {
						return err
					}

					view, err := adminClient.GetStorageConfig()
					if err != nil {
						return err
					}

					viewJSON, err := json.MarshalIndent(view, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(viewJSON))
					return nil
				},
			},
			&cli.Command{
				Name:        "set-config",
				Usage:       "",
				Description: "Replace the active storage configuration at runtime",
				Flags: []cli.Flag{
					flagServerAddr,
					flagAdminPrivkey,
					flagAdminPubkey,
					flagStorageKind,
					flagStorageEndpoint,
					flagStorageBucket,
					flagStorageRegion,
					flagStorageAccessKey,
					flagStorageSecretKey,
				},
				Action: func(cCtx *cli.Context) error {
					_, adminClient, err := loadAdminCredentials(cCtx)
					if err != nil {
						return err
					}

					view, err := adminClient.UpdateStorageConfig(httpserver.StorageConfigUpdate{
						Kind:      cCtx.String(flagStorageKind.Name),
						Endpoint:  cCtx.String(flagStorageEndpoint.Name),
						Bucket:    cCtx.String(flagStorageBucket.Name),
						Region:    cCtx.String(flagStorageRegion.Name),
						AccessKey: cCtx.String(flagStorageAccessKey.Name),
						SecretKey: cCtx.String(flagStorageSecretKey.Name),
					})
					if err != nil {
						return err
					}

					viewJSON, err := json.MarshalIndent(view, "", "  ")
					if err != nil {
						return err
					}

					fmt.Println(string(viewJSON))
					return nil
				},
			},
			&cli.Command{
				Name:        "generate-admin",
				Usage:       "",
				Description: "Generate an ECDSA admin key pair and write it as PEM files",
				Flags: []cli.Flag{
					flagAdminPrivkey,
					flagAdminPubkey,
				},
				Action: func(cCtx *cli.Context) error {
					privateKeyPEM, publicKeyPEM, err := httpserver.GenerateAdminKeyPair()
					if err != nil {
						return err
					}

					if err := os.WriteFile(cCtx.String(flagAdminPrivkey.Name), []byte(privateKeyPEM), 0600); err != nil {
						return err
					}

					if err := os.WriteFile(cCtx.String(flagAdminPubkey.Name), []byte(publicKeyPEM), 0600); err != nil {
						return err
					}

					pubkeyHash := sha256.Sum256([]byte(publicKeyPEM))
					fmt.Println("admin id:", hex.EncodeToString(pubkeyHash[:]))
					return nil
				},
			},
			&cli.Command{
				Name:        "generate-admins-config",
				Usage:       "",
				Description: "Build the server's admin keys file from public key PEMs",
				Flags: []cli.Flag{
					flagAdminsConfig,
					&cli.StringSliceFlag{
						Name: "admin-pubkey-files",
					},
				},
				Action: func(cCtx *cli.Context) error {
					config := httpserver.AdminsConfig{}

					for _, pubkey := range cCtx.StringSlice("admin-pubkey-files") {
						publicKeyPEM, err := os.ReadFile(pubkey)
						if err != nil {
							return err
						}

						pubkeyHash := sha256.Sum256(publicKeyPEM)
						config.Admins = append(config.Admins, httpserver.AdminMetadata{
							ID:     hex.EncodeToString(pubkeyHash[:]),
							PubKey: string(publicKeyPEM),
						})
					}

					configBytes, err := json.Marshal(config)
					if err != nil {
						return err
					}

					if err := os.WriteFile(cCtx.String(flagAdminsConfig.Name), configBytes, 0600); err != nil {
						return err
					}

					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
