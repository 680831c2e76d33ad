package cmd

import (
	"fmt"
	"os"

	"github.com/Rana718/querygraft/internal/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║                                              ║",
		"║              Q U E R Y G R A F T             ║",
		"║                                              ║",
		"║     🔎 SELECT in, typed descriptor out 🔎    ║",
		"║                                              ║",
		"╚══════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "querygraft",
	Short: "Turn SQL SELECT statements into typed query descriptors",
	Long: `
QueryGraft reads a SELECT statement that may contain ${name} placeholders and
describes it for code generators: the tables it reads, the typed properties it
returns, the variables it binds and the equality filter it applies.

Column types come from:
- CREATE TABLE statements in the schema directory
- A live PostgreSQL, MySQL or SQLite database
- Nothing at all (every unknown column is a string)`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("QueryGraft CLI version %s\n", Version)
			os.Exit(0)
		}

		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.FileName+".json)")
	rootCmd.PersistentFlags().String("source", "", "metadata source override: schema, database or none")
	viper.BindPFlag("metadata.source", rootCmd.PersistentFlags().Lookup("source"))

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName(config.FileName)
	}

	viper.SetEnvPrefix("QUERYGRAFT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		color.Yellow("⚠️  Could not read config %s: %v", cfgFile, err)
	}
}
