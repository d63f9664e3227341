package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/formvault/document-storage-backend/cmd/flags"
	"github.com/formvault/document-storage-backend/cryptoname"
	"github.com/formvault/document-storage-backend/interfaces"
	"github.com/formvault/document-storage-backend/validation"
	"github.com/formvault/document-storage-backend/vault"
	"github.com/urfave/cli/v2"
)

var flagOpaqueName *cli.StringFlag = &cli.StringFlag{
	Name:     "name",
	Usage:    "Opaque stored name to reveal",
	Required: true,
}

var flagFile *cli.StringFlag = &cli.StringFlag{
	Name:     "file",
	Usage:    "Path to a local file",
	Required: true,
}

var flagExpectedHash *cli.StringFlag = &cli.StringFlag{
	Name:     "hash",
	Usage:    "Expected tagged hash (sha256:<hex>)",
	Required: true,
}

func main() {
	flags.LoadDotEnv()

	app := &cli.App{
		Name:           "vault admin",
		Usage:          "",
		DefaultCommand: "rules",
		Commands: []*cli.Command{
			&cli.Command{
				Name:        "reveal-name",
				Usage:       "",
				Description: "Decrypt an opaque stored name back to the original filename",
				Flags: []cli.Flag{
					flags.NamingSecretFlag,
					flagOpaqueName,
				},
				Action: func(cCtx *cli.Context) error {
					namer, err := cryptoname.New(cCtx.String(flags.NamingSecretFlag.Name))
					if err != nil {
						return err
					}

					// Foreign and tampered names are not errors here. The
					// command prints unknown and exits zero so audits over a
					// mixed bucket keep going.
					name := interfaces.OpaqueName(cCtx.String(flagOpaqueName.Name))
					fmt.Println(namer.DecryptName(name))
					return nil
				},
			},
			&cli.Command{
				Name:        "verify",
				Usage:       "",
				Description: "Recompute a local file's tagged hash and compare against the expected one",
				Flags: []cli.Flag{
					flagFile,
					flagExpectedHash,
				},
				Action: func(cCtx *cli.Context) error {
					expected, err := interfaces.ParseTaggedHash(cCtx.String(flagExpectedHash.Name))
					if err != nil {
						return err
					}

					f, err := os.Open(cCtx.String(flagFile.Name))
					if err != nil {
						return err
					}
					defer f.Close()

					actual, size, err := vault.HashReader(f)
					if err != nil {
						return err
					}

					if actual != expected {
						return fmt.Errorf("%w: file hashes to %s (%d bytes), expected %s", interfaces.ErrIntegrityMismatch, actual, size, expected)
					}

					fmt.Printf("ok %s (%d bytes)\n", actual, size)
					return nil
				},
			},
			&cli.Command{
				Name:        "hash",
				Usage:       "",
				Description: "Print the tagged hash of a local file",
				Flags: []cli.Flag{
					flagFile,
				},
				Action: func(cCtx *cli.Context) error {
					f, err := os.Open(cCtx.String(flagFile.Name))
					if err != nil {
						return err
					}
					defer f.Close()

					hash, _, err := vault.HashReader(f)
					if err != nil {
						return err
					}

					fmt.Println(hash)
					return nil
				},
			},
			&cli.Command{
				Name:        "rules",
				Usage:       "",
				Description: "Print the validation rules the given limits produce",
				Flags:       flags.UploadFlags,
				Action: func(cCtx *cli.Context) error {
					validator := validation.New(flags.ConfigureValidation(cCtx), slog.Default())

					rulesJSON, err := json.Marshal(validator.Rules())
					if err != nil {
						return err
					}

					fmt.Println(string(rulesJSON))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
