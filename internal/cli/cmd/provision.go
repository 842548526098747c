package cmd

import (
	"crafthost/internal/app"
	"crafthost/internal/catalog"
	"crafthost/internal/domain"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var provVersion string
var provJava, provEULA bool
var provPort, provMin, provMax int

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Download the server jar (and optionally Java) into the server directory",
	Run: func(cmd *cobra.Command, args []string) {
		handleProvision()
	},
}

func init() {
	provisionCmd.Flags().StringVar(&provVersion, "version", "", "Server version (defaults to the newest stable release)")
	provisionCmd.Flags().BoolVar(&provJava, "java", true, "Download a matching Java runtime")
	provisionCmd.Flags().BoolVar(&provEULA, "eula", false, "Accept the Minecraft EULA")
	provisionCmd.Flags().IntVar(&provPort, "port", 0, "Server port written to server.properties (defaults to config on first install)")
	provisionCmd.Flags().IntVar(&provMin, "min-ram", 0, "Minimum heap in MB (defaults to config)")
	provisionCmd.Flags().IntVar(&provMax, "max-ram", 0, "Maximum heap in MB (defaults to config)")

	RootCmd.AddCommand(provisionCmd)
}

func handleProvision() {
	version := provVersion
	if version == "" {
		result := Container.Catalog.ListVersions()
		if !result.Available() {
			log.Fatalf("Could not determine the newest version: %v", result.Err)
		}
		newest, ok := catalog.NewestStable(result.Versions)
		if !ok {
			log.Fatalf("The release catalog lists no stable versions")
		}
		version = newest
	}

	req := app.ProvisionRequest{
		Version:     version,
		InstallJava: provJava,
		AcceptEULA:  provEULA,
		Port:        provPort,
		MinHeapMB:   Container.Config.Memory.MinMB,
		MaxHeapMB:   Container.Config.Memory.MaxMB,
	}
	if provMin > 0 {
		req.MinHeapMB = provMin
	}
	if provMax > 0 {
		req.MaxHeapMB = provMax
	}
	if req.Port == 0 {
		req.Port = Container.InitialPort()
	}

	progressChan := make(chan domain.ProgressEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range progressChan {
			if event.TotalBytes > 0 {
				fmt.Printf("\r[Progress] %s (%.0f%%)   ", event.Message, event.Progress)
			} else {
				fmt.Printf("\n[Progress] %s", event.Message)
			}
		}
		fmt.Println()
	}()

	inst, err := Container.Provisioner.Provision(req, progressChan)
	close(progressChan)
	<-done

	if err != nil {
		log.Fatalf("Error provisioning server: %v", err)
	}

	fmt.Println("\n--- INSTALLATION ---")
	fmt.Printf("Directory: %s\n", inst.Root)
	fmt.Printf("Version:   %s %s (build %d)\n", inst.Project, inst.Version, inst.Build)
	fmt.Printf("Java:      %d %s\n", inst.JavaMajor, inst.JavaPath)
	fmt.Printf("Port:      %d\n", inst.Port)
	if !inst.EULAAccepted {
		fmt.Println("\nThe EULA has not been accepted. Run `crafthost eula --accept` before starting.")
	}
}
