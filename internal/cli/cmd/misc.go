package cmd

import (
	"crafthost/internal/firewall"
	"crafthost/internal/updater"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/emersion/go-autostart"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

const eulaURL = "https://aka.ms/MinecraftEULA"

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer build of the installed version",
	Run: func(cmd *cobra.Command, args []string) {
		handleCheckUpdates()
	},
}

var firewallCmd = &cobra.Command{
	Use:   "firewall",
	Short: "Manage the OS firewall",
}

var firewallOpenCmd = &cobra.Command{
	Use:   "open [port]",
	Short: "Allow inbound TCP on the server port (Windows)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		port := Container.Layout.Port()
		if len(args) == 1 {
			p, err := strconv.Atoi(args[0])
			if err != nil {
				log.Fatalf("Error: invalid port %q", args[0])
			}
			port = p
		}
		handleOpenPort(port)
	},
}

var eulaAccept, eulaOpen bool

var eulaCmd = &cobra.Command{
	Use:   "eula",
	Short: "Show, open or accept the Minecraft EULA",
	Run: func(cmd *cobra.Command, args []string) {
		handleEULA(eulaAccept, eulaOpen)
	},
}

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Run the server when you log in",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Register `crafthost run` as a login item",
	Run: func(cmd *cobra.Command, args []string) {
		handleAutostart(true)
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the login item",
	Run: func(cmd *cobra.Command, args []string) {
		handleAutostart(false)
	},
}

func init() {
	eulaCmd.Flags().BoolVar(&eulaAccept, "accept", false, "Write eula=true into the server directory")
	eulaCmd.Flags().BoolVar(&eulaOpen, "open", false, "Open the EULA in a browser")

	firewallCmd.AddCommand(firewallOpenCmd)
	autostartCmd.AddCommand(autostartEnableCmd, autostartDisableCmd)

	RootCmd.AddCommand(updateCmd, firewallCmd, eulaCmd, autostartCmd)
}

func handleCheckUpdates() {
	inst, err := Container.Provisioner.Installation()
	if err != nil {
		log.Fatalf("Error reading installation: %v", err)
	}

	info, err := updater.CheckForUpdates(Container.Catalog, inst)
	if err != nil {
		log.Fatalf("Error checking updates: %v", err)
	}

	fmt.Println("\n--- UPDATE CHECK ---")
	fmt.Printf("Version:       %s\n", info.Version)
	fmt.Printf("Current build: %d\n", info.CurrentBuild)
	fmt.Printf("Latest build:  %d\n", info.LatestBuild)

	if info.UpdateAvailable {
		fmt.Println("\nA newer build is available. Run `crafthost provision --version " + info.Version + "` to install it.")
	} else {
		fmt.Println("\nYou are up to date.")
	}
	if info.NewerVersion {
		fmt.Printf("Version %s is also available.\n", info.NewestVersion)
	}
}

func handleOpenPort(port int) {
	if err := firewall.OpenPort(port); err != nil {
		log.Fatalf("Error opening port: %v", err)
	}
	fmt.Printf("Port %d opened.\n", port)
}

func handleEULA(accept, open bool) {
	if open {
		if err := browser.OpenURL(eulaURL); err != nil {
			fmt.Printf("Could not open a browser: %v\nRead it at %s\n", err, eulaURL)
		}
	}

	if accept {
		if err := Container.Layout.AcceptEULA(); err != nil {
			log.Fatalf("Error accepting EULA: %v", err)
		}
		if err := Container.Store.SetEULAAccepted(Container.Layout.Root, true); err != nil {
			log.Printf("Warning: could not record EULA acceptance: %v", err)
		}
	}

	if Container.Layout.EULAAccepted() {
		fmt.Println("EULA accepted.")
	} else {
		fmt.Printf("EULA not accepted. Read %s and run `crafthost eula --accept`.\n", eulaURL)
	}
}

func handleAutostart(enable bool) {
	exe, err := os.Executable()
	if err != nil {
		log.Fatalf("Error resolving executable: %v", err)
	}

	args := []string{exe}
	if ConfigDir != "" {
		args = append(args, "--config-dir", ConfigDir)
	}
	args = append(args, "run")

	item := &autostart.App{
		Name:        "crafthost",
		DisplayName: "crafthost server",
		Exec:        args,
	}

	if enable {
		if err := item.Enable(); err != nil {
			log.Fatalf("Error enabling autostart: %v", err)
		}
		fmt.Println("Autostart enabled.")
		return
	}

	if !item.IsEnabled() {
		fmt.Println("Autostart is not enabled.")
		return
	}
	if err := item.Disable(); err != nil {
		log.Fatalf("Error disabling autostart: %v", err)
	}
	fmt.Println("Autostart disabled.")
}
