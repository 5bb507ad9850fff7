package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"invoiceform/internal/countries"
	"invoiceform/internal/logger"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries offered by the form's country pickers",
	Long: `Fetch the country list from COUNTRIES_API_URL (a REST Countries v3.1
endpoint) and print one common name per line, sorted alphabetically.`,
	Args: cobra.NoArgs,
	RunE: runCountries,
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}

func runCountries(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("countries")

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	ctx, cancel := createContext(cfg.CountriesTimeout+5*time.Second, log)
	defer cancel()

	names, err := createCountryProvider(cfg).Countries(ctx)
	if err != nil {
		log.Error().Err(err).Str("url", cfg.CountriesAPIURL).Msg("Failed to fetch countries")
		if errors.Is(err, countries.ErrFetchFailed) {
			return fmt.Errorf("could not fetch the country list from %s. Check COUNTRIES_API_URL and your connection", cfg.CountriesAPIURL)
		}
		return err
	}

	for _, name := range names {
		fmt.Println(name)
	}
	log.Info().Int("countries", len(names)).Msg("Country list printed")
	return nil
}
