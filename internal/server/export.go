package server

import (
	"fmt"
	"net/http"

	"github.com/fitrackhq/fitrack/internal/interfaces"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleTransactionsExport handles GET /api/investments/{id}/transactions/export.
// Streams the full ledger of one investment as an XLSX workbook.
func (s *Server) handleTransactionsExport(w http.ResponseWriter, r *http.Request, investmentID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	inv, err := s.app.InvestmentService.GetInvestment(ctx, userID, investmentID)
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", investmentID).Msg("Failed to load investment for export")
		WriteError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	if inv == nil {
		WriteError(w, http.StatusNotFound, "investment not found")
		return
	}

	// Zero limit fetches the whole ledger, oldest first
	txs, _, err := s.app.InvestmentService.ListTransactions(ctx, userID, investmentID, interfaces.ListOptions{OrderBy: "date_asc"})
	if err != nil {
		s.logger.Error().Err(err).Str("investment_id", investmentID).Msg("Failed to list transactions for export")
		WriteError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create export sheet")
		WriteError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []interface{}{"Date", "Type", "Amount", "Description", "Created"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write export header")
		WriteError(w, http.StatusInternalServerError, "failed to export transactions")
		return
	}

	for i, tx := range txs {
		row := []interface{}{
			tx.TransactionDate.Format("2006-01-02"),
			string(tx.Type),
			tx.Amount,
			tx.Description,
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			s.logger.Error().Err(err).Msg("Failed to write export row")
			WriteError(w, http.StatusInternalServerError, "failed to export transactions")
			return
		}
	}

	filename := fmt.Sprintf("transactions-%s.xlsx", investmentID)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)

	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Str("investment_id", investmentID).Msg("Failed to stream export")
	}
}
