package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchInstallments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/blank_api_obtener_cuotas/", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("id_work"))
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("fecha"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"inquilino": {"nombre":"Perez","propiedad":"Local 3","tipo":"comercial","cuit":"20-11111111-1","diaVencimiento":10,"deudaTotal":2300},
			"cuotas": [
				{"id":1,"id_detalle":11,"periodo":"2024-01","concepto":"alquiler","importe":1000,"importeOriginal":950,"interes":50,"fechaVencimiento":"10-01-2024","id_tarifa":7}
			],
			"fechaCalculo": "2024-03-01",
			"esTransferencia": true
		}`))
	}))
	defer srv.Close()

	client := NewBillingServiceWithBase(srv.URL)
	resp, err := client.FetchInstallments(context.Background(), 42, "2024-03-01")
	require.NoError(t, err)

	assert.Equal(t, "Perez", resp.Inquilino.Nombre)
	assert.True(t, resp.EsTransferencia)
	require.Len(t, resp.Cuotas, 1)
	assert.Equal(t, "alquiler", resp.Cuotas[0].Concepto)
	assert.Equal(t, 7, resp.Cuotas[0].IDTarifa)
	assert.Equal(t, "1000", resp.Cuotas[0].Importe.String())
	assert.Equal(t, "50", resp.Cuotas[0].Interes.String())
}

func TestFetchInstallments_BackendFailureFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "inquilino inexistente"}`))
	}))
	defer srv.Close()

	client := NewBillingServiceWithBase(srv.URL)
	_, err := client.FetchInstallments(context.Background(), 42, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inquilino inexistente")
}

func TestFetchInstallments_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewBillingServiceWithBase(srv.URL)
	_, err := client.FetchInstallments(context.Background(), 42, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestRegisterPayment(t *testing.T) {
	var got map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/blank_api_registrar_pago/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"success": true, "message": "ok", "nroComprobante": 5501, "pagoTotal": 1300}`))
	}))
	defer srv.Close()

	client := NewBillingServiceWithBase(srv.URL)
	resp, err := client.RegisterPayment(context.Background(), &SubmitRequest{
		IDWork:   42,
		Efectivo: dec(1300),
		Cuotas: []SubmitInstallment{
			{IDTarifa: 7, Periodo: "2024-01", Importe: dec(1000)},
			{IDTarifa: 8, Periodo: "2024-01", Importe: dec(300)},
		},
		Usuario: "cajero1",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 5501, resp.NroComprobante)
	assert.Equal(t, "1300", resp.PagoTotal.String())

	// Wire field names are the backend's own.
	assert.Equal(t, float64(42), got["id_work"])
	assert.Equal(t, float64(1300), got["efectivo"])
	assert.Equal(t, "cajero1", got["usuario"])
	cuotas, ok := got["cuotas"].([]interface{})
	require.True(t, ok)
	require.Len(t, cuotas, 2)
	first, ok := cuotas[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), first["id_tarifa"])
	assert.Equal(t, "2024-01", first["periodo"])
}

func TestRegisterPayment_FailureFlagPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "caja cerrada", "nroComprobante": 0, "pagoTotal": 0}`))
	}))
	defer srv.Close()

	client := NewBillingServiceWithBase(srv.URL)
	resp, err := client.RegisterPayment(context.Background(), &SubmitRequest{IDWork: 1})
	require.NoError(t, err, "a decoded failure is not a transport error")
	assert.False(t, resp.Success)
	assert.Equal(t, "caja cerrada", resp.Message)
}
