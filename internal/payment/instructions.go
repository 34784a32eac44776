package payment

import (
	"fmt"
	"strings"

	"mebelin-be/internal/order"
)

var instructionMap = map[order.PaymentMethod][]string{
	order.MethodBankTransfer: {
		"Buka aplikasi mobile banking atau ATM bank Anda",
		"Pilih menu Transfer → Rekening Bank",
		"Transfer ke rekening toko dengan berita acara {{order_number}}",
		"Pastikan nominal transfer {{amount}} sudah sesuai",
		"Simpan bukti transfer sampai pesanan dikonfirmasi",
	},
	order.MethodEwallet: {
		"Buka aplikasi e-wallet Anda",
		"Pastikan saldo mencukupi untuk pembayaran {{amount}}",
		"Konfirmasi pembayaran untuk pesanan {{order_number}}",
		"Masukkan PIN untuk menyelesaikan transaksi",
	},
	order.MethodCOD: {
		"Pesanan akan dikirim ke alamat tujuan",
		"Siapkan uang tunai sebesar {{amount}} saat kurir tiba",
		"Lakukan pembayaran langsung kepada kurir",
		"Simpan bukti pembayaran dari kurir",
	},
}

var fallbackInstructions = []string{
	"Ikuti instruksi pembayaran yang tersedia pada halaman ini",
}

type InstructionVars map[string]string

// Instructions returns the payment steps for an order, with the amount
// and order number filled in. Rupiah amounts render without subunits.
func Instructions(o *order.Order) []string {
	steps, ok := instructionMap[o.PaymentMethod]
	if !ok {
		steps = fallbackInstructions
	}

	return injectVariables(steps, InstructionVars{
		"amount":       FormatRupiah(o.Total),
		"order_number": o.OrderNumber,
	})
}

func injectVariables(steps []string, vars InstructionVars) []string {
	result := make([]string, 0, len(steps))

	for _, step := range steps {
		updated := step
		for key, value := range vars {
			updated = strings.ReplaceAll(updated, "{{"+key+"}}", value)
		}
		result = append(result, updated)
	}

	return result
}

// FormatRupiah renders an integer rupiah amount with thousand dots,
// e.g. 115000 → "Rp115.000".
func FormatRupiah(amount int64) string {
	digits := fmt.Sprintf("%d", amount)

	var b strings.Builder
	b.WriteString("Rp")
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return b.String()
}
