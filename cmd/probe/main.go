package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"caja_app_echo/internal/caja"
	"caja_app_echo/internal/services"
)

// Manual probe against a billing backend: fetches a tenant's installments
// and prints the ledger the way the cashier screen would see it.
func main() {
	workID := flag.Int("work", 0, "Work id of the tenant")
	fecha := flag.String("fecha", "", "Optional reference date")
	flag.Parse()

	if *workID == 0 {
		log.Fatal("Please provide a work id using -work flag")
	}

	// Load envs
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found")
	}

	billing := services.NewBillingService()

	resp, err := billing.FetchInstallments(context.Background(), *workID, *fecha)
	if err != nil {
		log.Fatalf("Failed to fetch installments: %v", err)
	}

	log.Printf("Tenant: %s (%s), total debt %s",
		resp.Inquilino.Nombre, resp.Inquilino.Propiedad, caja.FormatAmount(resp.Inquilino.DeudaTotal))
	if resp.EsTransferencia {
		log.Println("Payment mode: transfer")
	} else {
		log.Println("Payment mode: cash")
	}

	for _, c := range resp.Cuotas {
		log.Printf("  [%d] %s %s due %s: %s (interest %s)",
			c.ID, c.Periodo, c.Concepto, c.FechaVencimiento,
			caja.FormatAmount(c.Importe), caja.FormatAmount(c.Interes))
	}
}
