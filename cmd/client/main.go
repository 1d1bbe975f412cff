package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"pixgate/internal/client"
	"pixgate/internal/constants"
	"pixgate/internal/utils"
)

func main() {
	flag.Usage = func() {
		client.PrintBanner()
		fmt.Printf("  %sUsage:%s\n", constants.ColorBold, constants.ColorReset)
		fmt.Printf("    %s\n", constants.MsgUsage)
		fmt.Println()
		fmt.Printf("  %sFlags:%s\n", constants.ColorBold, constants.ColorReset)
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    -%-12s %s\n", f.Name, f.Usage)
		})
		fmt.Println()
	}

	serverFlag := flag.String("server", utils.GetEnv("PIXGATE_SERVER", constants.DefaultServerURL), "pixgate server URL")
	dirFlag := flag.String("dir", filepath.Join(os.TempDir(), constants.AppName), "directory to store challenge images")
	versionFlag := flag.Bool("version", false, "show version")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("  %s%spixgate%s %sv%s%s\n", constants.ColorBold, constants.ColorCyan, constants.ColorReset, constants.ColorBold, constants.Version, constants.ColorReset)
		os.Exit(0)
	}

	client.PrintBanner()
	client.PrintField("Server", *serverFlag, constants.ColorCyan)
	client.PrintField("Images", *dirFlag, constants.ColorCyan)
	client.PrintSep()

	c, err := client.New(*serverFlag)
	if err != nil {
		fmt.Printf("  %sError: %v%s\n", constants.ColorRed, err, constants.ColorReset)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := client.Run(ctx, c, *dirFlag, os.Stdin); err != nil {
		fmt.Printf("  %sError: %v%s\n", constants.ColorRed, err, constants.ColorReset)
		os.Exit(1)
	}
}
