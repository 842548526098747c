package cmd

import (
	"bufio"
	"crafthost/internal/runner"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the server in the foreground and attach to its console",
	Run: func(cmd *cobra.Command, args []string) {
		handleRun()
	},
}

func init() {
	RootCmd.AddCommand(runCmd)
}

func handleRun() {
	inst, err := Container.StartServer(os.Stdout)
	if err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
	fmt.Printf("Server started (pid %d). Type console commands, Ctrl+C to stop.\n", inst.PID)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := Container.Supervisor.SendCommand(scanner.Text()); err != nil {
				return
			}
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		fmt.Println("\nStopping server...")
		if err := Container.Supervisor.Stop(); err != nil && !errors.Is(err, runner.ErrNotRunning) {
			log.Printf("Error stopping server: %v", err)
		}
		<-inst.Done()
	case <-inst.Done():
		_ = Container.Supervisor.Stop()
		if err := inst.ExitErr(); err != nil {
			fmt.Printf("Server exited: %v\n", err)
		} else {
			fmt.Println("Server exited.")
		}
	}
}
