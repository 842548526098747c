package cmd

import (
	"crafthost/internal/installation"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

var portFree bool
var memMin, memMax int

var portCmd = &cobra.Command{
	Use:   "port [port]",
	Short: "Show or change the server port",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && !portFree {
			port := Container.Layout.Port()
			status := "free"
			if !installation.PortAvailable(port) {
				status = "in use"
			}
			fmt.Printf("Port: %d (%s)\n", port, status)
			return
		}
		handleSetPort(args)
	},
}

var portRangeCmd = &cobra.Command{
	Use:   "range [start] [end]",
	Short: "Show or set the range searched by `port --free`",
	Args:  cobra.RangeArgs(0, 2),
	Run: func(cmd *cobra.Command, args []string) {
		handlePortRange(args)
	},
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show or change the heap bounds used at launch",
	Run: func(cmd *cobra.Command, args []string) {
		handleMemory(memMin, memMax)
	},
}

func init() {
	portCmd.Flags().BoolVar(&portFree, "free", false, "Pick the first free port in the configured range")
	memoryCmd.Flags().IntVar(&memMin, "min", 0, "Minimum heap in MB")
	memoryCmd.Flags().IntVar(&memMax, "max", 0, "Maximum heap in MB")

	portCmd.AddCommand(portRangeCmd)
	RootCmd.AddCommand(portCmd)
	RootCmd.AddCommand(memoryCmd)
}

func handleSetPort(args []string) {
	var port int
	if portFree {
		start, end, err := Container.Store.GetPortRange()
		if err != nil {
			log.Fatalf("Error reading port range: %v", err)
		}
		if port, err = installation.NextFreePort(start, end); err != nil {
			log.Fatalf("Error: %v", err)
		}
	} else {
		p, err := strconv.Atoi(args[0])
		if err != nil {
			log.Fatalf("Error: invalid port %q", args[0])
		}
		port = p
	}

	if !installation.PortAvailable(port) {
		fmt.Printf("Warning: port %d is currently in use\n", port)
	}
	if err := Container.Layout.SetPort(port); err != nil {
		log.Fatalf("Error writing server.properties: %v", err)
	}

	inst, err := Container.Provisioner.Installation()
	if err != nil {
		log.Fatalf("Error loading installation: %v", err)
	}
	if inst != nil {
		if err := Container.Store.UpdateInstallationPort(inst.Root, port); err != nil {
			log.Fatalf("DB error: %v", err)
		}
	}

	fmt.Printf("Server port set to %d. Restart the server to apply it.\n", port)
}

func handlePortRange(args []string) {
	if len(args) < 2 {
		start, end, err := Container.Store.GetPortRange()
		if err != nil {
			log.Fatalf("Error reading port range: %v", err)
		}
		fmt.Printf("Port range: %d-%d\n", start, end)
		return
	}

	start, err1 := strconv.Atoi(args[0])
	end, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		log.Fatalf("Error: ports must be numbers")
	}
	if err := Container.Store.SetPortRange(start, end); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Port range set to %d-%d\n", start, end)
}

func handleMemory(minMB, maxMB int) {
	inst, err := Container.Provisioner.Installation()
	if err != nil {
		log.Fatalf("Error loading installation: %v", err)
	}

	if minMB == 0 && maxMB == 0 {
		opts := Container.LaunchOptions(inst)
		fmt.Printf("Heap: -Xms%dM -Xmx%dM\n", opts.MinHeapMB, opts.MaxHeapMB)
		return
	}

	if inst == nil {
		// Nothing provisioned yet; the bounds become the configured defaults.
		if minMB > 0 {
			Container.Config.Memory.MinMB = minMB
		}
		if maxMB > 0 {
			Container.Config.Memory.MaxMB = maxMB
		}
		if err := Container.Config.Validate(); err != nil {
			log.Fatalf("Error: %v", err)
		}
		if err := Container.Config.Save(); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default heap set to %d-%d MB in %s\n", Container.Config.Memory.MinMB, Container.Config.Memory.MaxMB, Container.Config.Path())
		return
	}

	if minMB == 0 {
		minMB = inst.MinHeapMB
	}
	if maxMB == 0 {
		maxMB = inst.MaxHeapMB
	}
	if err := Container.Store.UpdateMemory(inst.Root, minMB, maxMB); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Heap set to %d-%d MB. Restart the server to apply it.\n", minMB, maxMB)
}
