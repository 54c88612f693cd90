package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Mark classroom attendance from group photos using face embeddings",
	Long: `Face Attendance recognizes known people in a group photo by comparing
face embeddings against a roster of reference photos, and records a
once-per-day attendance entry for everyone it recognizes.

Reference photos live in the faces directory, one image per person, with the
file name as the person's name (e.g. Faces/Alice.jpg). Detection and
embedding run on an external embedding server.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
