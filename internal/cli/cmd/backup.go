package cmd

import (
	"context"
	"crafthost/internal/backup"
	"crafthost/internal/domain"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage world snapshots",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Snapshot the current world",
	Run: func(cmd *cobra.Command, args []string) {
		handleBackupCreate()
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		handleListBackups()
	},
}

var restoreForce bool

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [name]",
	Short: "Replace the world with a snapshot (the current world is deleted)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleRestoreBackup(args[0], restoreForce)
	},
}

var exportDest string

var backupExportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Write a snapshot as a zip archive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleExportBackup(args[0], exportDest)
	},
}

func init() {
	backupRestoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Restore without asking for confirmation")
	backupExportCmd.Flags().StringVar(&exportDest, "output", "", "Archive path (defaults to <name>.zip in the working directory)")

	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupExportCmd)
	RootCmd.AddCommand(backupCmd)
}

func handleBackupCreate() {
	snap, err := Container.BackupManager.CreateBackup()
	if err != nil {
		log.Fatalf("Error creating backup: %v", err)
	}
	if snap == nil {
		fmt.Println("No world to back up yet. Start the server once to generate it.")
		return
	}
	fmt.Printf("Backup %s created (%.2f MB)\n", snap.Name, float64(snap.Size)/1024/1024)
	fmt.Printf("Location: %s\n", snap.Path)
}

func handleListBackups() {
	names, err := Container.BackupManager.ListBackups()
	if err != nil {
		log.Fatalf("Error listing backups: %v", err)
	}

	fmt.Println("Backups:")
	for _, name := range backup.SortNewestFirst(names) {
		info, err := Container.BackupManager.Info(name)
		if err != nil {
			fmt.Printf("- %s\n", name)
			continue
		}
		fmt.Printf("- %s  %s  (%.2f MB)\n", name, info.CreatedAt.Format("2006-01-02 15:04:05"), float64(info.Size)/1024/1024)
	}
}

func handleRestoreBackup(name string, force bool) {
	if pid, running := Container.ServerRunning(); running {
		log.Fatalf("Error: the server is running (pid %d); stop it before restoring a backup", pid)
	}

	if !force {
		fmt.Printf("Restoring %s deletes the current world permanently. Continue? [y/N] ", name)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Restore cancelled.")
			return
		}
	}

	if err := Container.BackupManager.RestoreBackup(name); err != nil {
		log.Fatalf("Error restoring backup: %v", err)
	}
	fmt.Println("Backup restored successfully.")
}

func handleExportBackup(name, dest string) {
	if dest == "" {
		dest = name + ".zip"
	}
	dest, _ = filepath.Abs(dest)

	progressChan := make(chan domain.ProgressEvent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range progressChan {
			fmt.Printf("\r[Progress] %s", event.Message)
		}
		fmt.Println()
	}()

	err := Container.BackupManager.ExportBackup(context.Background(), name, dest, progressChan)
	close(progressChan)
	<-done

	if err != nil {
		log.Fatalf("Error exporting backup: %v", err)
	}
	fmt.Printf("Exported to %s\n", dest)
}
