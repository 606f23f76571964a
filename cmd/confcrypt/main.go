package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/confcrypt/confcrypt"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "keygen":
		runKeygen(os.Args[2:])
	case "encrypt":
		runEncrypt(os.Args[2:])
	case "decrypt":
		runDecrypt(os.Args[2:])
	case "keyring":
		runKeyring(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `confcrypt - field-level configuration encryption

Usage:
  confcrypt keygen  -out <key-file> [-algorithm <name>] [-force]
  confcrypt encrypt -in <config> -out <config> [-key-file <path>] [-paths a.b,c[0].d] [-strict]
  confcrypt decrypt -in <config> [-out <config>] [-key-file <path>]
  confcrypt keyring -service <name> [-account <name>] (-set <secret> | -delete)

Without a key file or %s, keys derive from the machine
fingerprint: convenient, but rederivable by any local user.
`, confcrypt.EnvMasterKey)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

func newTransformer(keyFile string, strict bool) *confcrypt.Transformer {
	material, err := confcrypt.DeriveKeyMaterial(confcrypt.KeyOptions{KeyFilePath: keyFile})
	if err != nil {
		fatal(err)
	}
	engine, err := material.Engine()
	if err != nil {
		fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts := []confcrypt.TransformerOption{confcrypt.WithLogger(logger)}
	if strict {
		opts = append(opts, confcrypt.WithStrictEncrypt())
	}
	return confcrypt.NewTransformer(engine, opts...)
}

func runKeygen(args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "", "key file path (required)")
	algorithm := fs.String("algorithm", "AES-256-GCM", "AES-256-GCM or ChaCha20-Poly1305")
	force := fs.Bool("force", false, "overwrite an existing key file")
	fs.Parse(args)

	if *out == "" {
		fs.Usage()
		os.Exit(1)
	}
	alg, err := confcrypt.ParseAlgorithm(*algorithm)
	if err != nil {
		fatal(err)
	}

	store := confcrypt.NewKeyFileStore(nil)
	material, err := store.Generate(*out, alg, *force)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Key file written to %s (key id %s)\n", *out, material.KeyID())
}

func runEncrypt(args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	in := fs.String("in", "", "input config file (required)")
	out := fs.String("out", "", "output config file (required)")
	keyFile := fs.String("key-file", "", "key file path")
	pathList := fs.String("paths", "", "comma-separated sensitive paths (default: built-in list)")
	strict := fs.Bool("strict", false, "fail on any path that cannot be encrypted")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fs.Usage()
		os.Exit(1)
	}

	paths := confcrypt.DefaultSensitivePaths
	if *pathList != "" {
		paths = strings.Split(*pathList, ",")
	}

	t := newTransformer(*keyFile, *strict)
	doc, err := t.LoadConfigFile(*in)
	if err != nil {
		fatal(err)
	}
	if err := t.SaveConfigFile(doc, *out, paths); err != nil {
		fatal(err)
	}
	fmt.Printf("Encrypted %d path(s) into %s\n", len(paths), *out)
}

func runDecrypt(args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	in := fs.String("in", "", "input config file (required)")
	out := fs.String("out", "", "output config file (default: stdout as JSON)")
	keyFile := fs.String("key-file", "", "key file path")
	fs.Parse(args)

	if *in == "" {
		fs.Usage()
		os.Exit(1)
	}

	t := newTransformer(*keyFile, false)
	doc, err := t.LoadConfigFile(*in)
	if err != nil {
		fatal(err)
	}

	if *out == "" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(data))
		return
	}
	if err := t.SaveConfigFile(doc, *out, nil); err != nil {
		fatal(err)
	}
	fmt.Printf("Decrypted config written to %s\n", *out)
}

func runKeyring(args []string) {
	fs := flag.NewFlagSet("keyring", flag.ExitOnError)
	service := fs.String("service", "", "keyring service name (required)")
	account := fs.String("account", "", "keyring account (default: master-key)")
	set := fs.String("set", "", "store this master secret")
	del := fs.Bool("delete", false, "remove the stored master secret")
	fs.Parse(args)

	if *service == "" || (*set == "" && !*del) {
		fs.Usage()
		os.Exit(1)
	}

	if *del {
		if err := confcrypt.DeleteKeyringSecret(*service, *account); err != nil {
			fatal(err)
		}
		fmt.Println("Keyring entry removed")
		return
	}
	if err := confcrypt.StoreKeyringSecret(*service, *account, *set); err != nil {
		fatal(err)
	}
	fmt.Println("Master secret stored in OS keyring")
}
