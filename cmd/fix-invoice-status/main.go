package main

import (
	"context"
	"os"

	"tuition-billing/config"
	"tuition-billing/database"
	"tuition-billing/internal/cli"
	"tuition-billing/internal/infra/billingdb"
	"tuition-billing/internal/logger"
	"tuition-billing/internal/payment"
)

func main() {
	cmd := cli.NewFixInvoiceStatusCmd(func(ctx context.Context) (cli.Reconciler, error) {
		config.LoadEnv()
		log := logger.Init(config.APP_ENV)
		db := database.InitDB(config.DB_URL)
		return payment.NewReconciler(billingdb.New(db), log), nil
	})
	os.Exit(cli.Execute(context.Background(), cmd, os.Args[1:]))
}
