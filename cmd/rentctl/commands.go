package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taibogaston/admininmo-sub000/service/business"
	"github.com/taibogaston/admininmo-sub000/service/models"
	"github.com/taibogaston/admininmo-sub000/service/repository"
	"github.com/taibogaston/admininmo-sub000/service/utility"
)

func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func openDB(cmd *cobra.Command) (*gorm.DB, error) {
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		return nil, errors.New("a database connection string is required, set --dsn or DATABASE_URL")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	return db, errors.Wrap(err, "could not connect to database")
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the service tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(cmd)
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			if err = db.AutoMigrate(models.All()...); err != nil {
				return errors.Wrap(err, "could not migrate")
			}
			logger.WithField("models", len(models.All())).Info("migration complete")
			return nil
		},
	}
}

type splitOutput struct {
	Total              string `json:"total"`
	Commission         string `json:"commission"`
	PlatformCommission string `json:"platformCommission"`
	OwnerNet           string `json:"ownerNet"`
	AgencyNet          string `json:"agencyNet"`
}

func splitCmd() *cobra.Command {
	var agencyPct, platformPct string
	cmd := &cobra.Command{
		Use:   "split [amount]",
		Short: "Print how an amount is split between owner, agency and platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(args[0])
			if err != nil {
				return errors.Wrap(err, "invalid amount")
			}
			agency, err := decimal.NewFromString(agencyPct)
			if err != nil {
				return errors.Wrap(err, "invalid agency percent")
			}
			platform, err := decimal.NewFromString(platformPct)
			if err != nil {
				return errors.Wrap(err, "invalid platform percent")
			}

			split := business.SplitCommission(total, business.ClampPercent(agency), business.ClampPercent(platform))
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(splitOutput{
				Total:              total.StringFixed(2),
				Commission:         split.AgencyCommission.StringFixed(2),
				PlatformCommission: split.PlatformCommission.StringFixed(2),
				OwnerNet:           split.OwnerNet.StringFixed(2),
				AgencyNet:          split.AgencyNet.StringFixed(2),
			})
		},
	}
	cmd.Flags().StringVar(&agencyPct, "agency", "0", "agency commission percent")
	cmd.Flags().StringVar(&platformPct, "platform", "0", "platform commission percent")
	return cmd
}

// logNotifier only logs, the CLI runs without the event queue.
type logNotifier struct {
	logger *logrus.Logger
}

func (n *logNotifier) Notify(_ context.Context, notification business.Notification) error {
	n.logger.WithField("kind", notification.Kind()).
		WithField("entity_id", notification.EntityID()).
		Info("notification not dispatched from the cli")
	return nil
}

func generateCmd() *cobra.Command {
	var platformPct, amount string
	cmd := &cobra.Command{
		Use:   "generate [contract-id] [period]",
		Short: "Generate the payment of a contract period as the platform administrator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger(cmd)

			pct, err := decimal.NewFromString(platformPct)
			if err != nil {
				return errors.Wrap(err, "invalid platform percent")
			}
			request := business.GeneratePaymentRequest{ContractID: args[0], Period: args[1]}
			if amount != "" {
				override, err := decimal.NewFromString(amount)
				if err != nil {
					return errors.Wrap(err, "invalid amount")
				}
				request.Amount = &override
			}

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			store := repository.NewStore(repository.NewGormProvider(db))
			ledger, err := business.NewPaymentLedger(store, &logNotifier{logger: logger}, utility.NewLogrusLogger(logger), pct)
			if err != nil {
				return err
			}

			actor := business.Actor{ID: "rentctl", Role: business.RoleSuperAdmin}
			payment, err := ledger.GeneratePayment(ctx, actor, request)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
				payment.GetID(), payment.Period, payment.Amount.StringFixed(2), payment.ExternalRef)
			return err
		},
	}
	cmd.Flags().StringVar(&platformPct, "platform", "0", "platform commission percent")
	cmd.Flags().StringVar(&amount, "amount", "", "override the contract monthly rent")
	return cmd
}
