package utils

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads an optional .env file and primes viper so settings can
// come from either the file or real environment variables.
func LoadConfig(path string) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debugf("viper config not read: %v", err)
	}
}
