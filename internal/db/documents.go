package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroscan/liquidaciones-ocr-service/internal/extract"
	"github.com/agroscan/liquidaciones-ocr-service/internal/models"
)

// DocumentRow is the persisted shape of one processed document.
type DocumentRow struct {
	ID          uuid.UUID  `json:"id"`
	Tipo        string     `json:"tipo"`
	ObjectKey   string     `json:"object_key"`
	RawText     string     `json:"ocr_raw"`
	RecordJSON  string     `json:"record_json"`
	Estado      string     `json:"estado"`
	UsuarioID   uuid.UUID  `json:"usuario_id"`
	ProcessedAt time.Time  `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// SaveDocument inserts a processed document and fills in its generated
// ID and creation timestamp.
func SaveDocument(ctx context.Context, doc *models.Document, usuarioID string, estado string) (*DocumentRow, error) {
	record, err := marshalRecord(doc)
	if err != nil {
		return nil, err
	}

	row := &DocumentRow{
		Tipo:        doc.Tipo,
		ObjectKey:   doc.ObjectKey,
		RawText:     doc.RawText,
		RecordJSON:  string(record),
		Estado:      estado,
		ProcessedAt: doc.ProcessedAt,
	}

	query := `
		INSERT INTO documentos (
			tipo, object_key, ocr_raw, record_json, estado, usuario_id, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6::uuid, $7)
		RETURNING id, usuario_id, created_at
	`
	err = Pool.QueryRow(ctx, query,
		row.Tipo, row.ObjectKey, row.RawText, row.RecordJSON, row.Estado, usuarioID, row.ProcessedAt,
	).Scan(&row.ID, &row.UsuarioID, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// GetDocuments returns the most recent documents, optionally filtered
// by tipo ("factura" or "liquidacion").
func GetDocuments(ctx context.Context, tipo string, limit int) ([]DocumentRow, error) {
	query := `
		SELECT id, tipo, COALESCE(object_key, ''), COALESCE(record_json::text, ''),
		       COALESCE(estado, ''), usuario_id, processed_at, created_at
		FROM documentos
		WHERE ($1 = '' OR tipo = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := Pool.Query(ctx, query, tipo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []DocumentRow
	for rows.Next() {
		var d DocumentRow
		err := rows.Scan(
			&d.ID, &d.Tipo, &d.ObjectKey, &d.RecordJSON,
			&d.Estado, &d.UsuarioID, &d.ProcessedAt, &d.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocumentByID retrieves one document, raw OCR text included.
func GetDocumentByID(ctx context.Context, documentID string) (*DocumentRow, error) {
	query := `
		SELECT id, tipo, COALESCE(object_key, ''), COALESCE(ocr_raw, ''),
		       COALESCE(record_json::text, ''), COALESCE(estado, ''),
		       usuario_id, processed_at, created_at, updated_at
		FROM documentos
		WHERE id = $1::uuid
	`
	var d DocumentRow
	err := Pool.QueryRow(ctx, query, documentID).Scan(
		&d.ID, &d.Tipo, &d.ObjectKey, &d.RawText,
		&d.RecordJSON, &d.Estado, &d.UsuarioID,
		&d.ProcessedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocument applies manual corrections to a stored record. Only
// whitelisted columns can change.
func UpdateDocument(ctx context.Context, documentID string, updates map[string]interface{}) error {
	allowed := map[string]bool{
		"record_json": true,
		"estado":      true,
		"tipo":        true,
	}

	sets := []string{}
	args := []interface{}{}
	i := 1
	for key, value := range updates {
		if !allowed[key] {
			return fmt.Errorf("column %q is not updatable", key)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", key, i))
		args = append(args, value)
		i++
	}
	if len(sets) == 0 {
		return fmt.Errorf("no updates provided")
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", i))
	args = append(args, time.Now())
	i++

	args = append(args, documentID)
	query := fmt.Sprintf("UPDATE documentos SET %s WHERE id = $%d::uuid",
		strings.Join(sets, ", "), i)

	_, err := Pool.Exec(ctx, query, args...)
	return err
}

// DeleteDocument removes a document row.
func DeleteDocument(ctx context.Context, documentID string) error {
	_, err := Pool.Exec(ctx, "DELETE FROM documentos WHERE id = $1::uuid", documentID)
	return err
}

// MonthlyStats aggregates the current month's processed settlements.
// Sums come back as decimals so cents survive aggregation intact.
type MonthlyStats struct {
	Month             string          `json:"month"`
	TotalDocumentos   int             `json:"total_documentos"`
	TotalLiquidado    decimal.Decimal `json:"total_liquidado"`
	TotalIVARG4310    decimal.Decimal `json:"total_iva_rg4310"`
	TotalNetoPagado   decimal.Decimal `json:"total_neto_pagado"`
	TotalKgLiquidados decimal.Decimal `json:"total_kg_liquidados"`
}

// GetMonthlyStats returns aggregate figures for the current month.
// The amounts live inside record_json, extracted in SQL.
func GetMonthlyStats(ctx context.Context) (*MonthlyStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM((record_json->>'totalOperacion')::numeric), 0)::text,
			COALESCE(SUM((record_json->>'ivaRg4310')::numeric), 0)::text,
			COALESCE(SUM((record_json->>'importeNetoAPagar')::numeric), 0)::text,
			COALESCE(SUM((record_json->>'cantidadKg')::numeric), 0)::text
		FROM documentos
		WHERE tipo = 'liquidacion'
		  AND DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
	`

	stats := &MonthlyStats{
		Month: time.Now().Format("2006-01"),
	}

	var liquidado, iva, neto, kg string
	err := Pool.QueryRow(ctx, query).Scan(
		&stats.TotalDocumentos, &liquidado, &iva, &neto, &kg,
	)
	if err != nil {
		return nil, err
	}

	if stats.TotalLiquidado, err = decimal.NewFromString(liquidado); err != nil {
		return nil, fmt.Errorf("bad total_liquidado aggregate: %w", err)
	}
	if stats.TotalIVARG4310, err = decimal.NewFromString(iva); err != nil {
		return nil, fmt.Errorf("bad total_iva_rg4310 aggregate: %w", err)
	}
	if stats.TotalNetoPagado, err = decimal.NewFromString(neto); err != nil {
		return nil, fmt.Errorf("bad total_neto_pagado aggregate: %w", err)
	}
	if stats.TotalKgLiquidados, err = decimal.NewFromString(kg); err != nil {
		return nil, fmt.Errorf("bad total_kg_liquidados aggregate: %w", err)
	}
	return stats, nil
}

// marshalRecord serializes whichever record matches the document type.
func marshalRecord(doc *models.Document) ([]byte, error) {
	switch doc.Tipo {
	case models.TipoFactura:
		if doc.Factura == nil {
			doc.Factura = &extract.InvoiceRecord{}
		}
		return json.Marshal(doc.Factura)
	case models.TipoLiquidacion:
		if doc.Liquidacion == nil {
			doc.Liquidacion = &extract.SettlementRecord{}
		}
		return json.Marshal(doc.Liquidacion)
	default:
		return nil, fmt.Errorf("unknown document type: %s", doc.Tipo)
	}
}
