/**
 * @description
 * This file handles the configuration management for the billing-service.
 * It uses the 'viper' library to load configuration from environment variables,
 * providing a centralized and consistent way to manage application settings.
 *
 * The PayPal credentials default to the well-known mock placeholders so the
 * service boots in mock mode out of the box; real sandbox or live credentials
 * switch it to live provider traffic.
 */
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	ClerkJWKSURL string `mapstructure:"CLERK_JWKS_URL"`

	PayPalClientID      string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret  string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalMode          string `mapstructure:"PAYPAL_MODE"`
	PayPalProPlanID     string `mapstructure:"PAYPAL_PRO_PLAN_ID"`
	PayPalEnterprisePID string `mapstructure:"PAYPAL_ENTERPRISE_PLAN_ID"`
	PayPalWebhookSecret string `mapstructure:"PAYPAL_WEBHOOK_SECRET"`

	ReconcileJobSchedule string `mapstructure:"RECONCILE_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("PAYPAL_CLIENT_ID", "mock_client_id")
	viper.SetDefault("PAYPAL_CLIENT_SECRET", "mock_client_secret")
	viper.SetDefault("PAYPAL_MODE", "sandbox")
	// These IDs should match the plans created in the PayPal Developer Dashboard.
	viper.SetDefault("PAYPAL_PRO_PLAN_ID", "P-4M46098059882255NMW2S46Y")
	viper.SetDefault("PAYPAL_ENTERPRISE_PLAN_ID", "P-5R632420M4870274WMW2S5QA")
	viper.SetDefault("RECONCILE_JOB_SCHEDULE", "*/15 * * * *") // Every 15 minutes.
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("PAYPAL_CLIENT_ID")
	_ = viper.BindEnv("PAYPAL_CLIENT_SECRET")
	_ = viper.BindEnv("PAYPAL_MODE")
	_ = viper.BindEnv("PAYPAL_PRO_PLAN_ID")
	_ = viper.BindEnv("PAYPAL_ENTERPRISE_PLAN_ID")
	_ = viper.BindEnv("PAYPAL_WEBHOOK_SECRET")
	_ = viper.BindEnv("RECONCILE_JOB_SCHEDULE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, err
	}

	if config.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if config.PayPalMode != "sandbox" && config.PayPalMode != "live" {
		return Config{}, fmt.Errorf("PAYPAL_MODE must be 'sandbox' or 'live', got %q", config.PayPalMode)
	}

	return config, nil
}

// PlanMapping returns the plan-name to PayPal-plan-id table.
func (c Config) PlanMapping() map[string]string {
	return map[string]string{
		"Pro":        c.PayPalProPlanID,
		"Enterprise": c.PayPalEnterprisePID,
	}
}
