package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kamilpajak/diagnosa/pkg/models"
)

const damageColumns = `code, name, prior_probability, repair_cost, repair_time, severity, remedy`

// Damages returns every damage ordered by code.
func (db *DB) Damages(ctx context.Context) ([]models.Damage, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+damageColumns+` FROM damages ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query damages: %w", err)
	}
	defer rows.Close()

	damages := []models.Damage{}
	for rows.Next() {
		var d models.Damage
		if err := rows.Scan(&d.Code, &d.Name, &d.PriorProbability, &d.RepairCost, &d.RepairTime, &d.Severity, &d.Remedy); err != nil {
			return nil, err
		}
		damages = append(damages, d)
	}
	return damages, rows.Err()
}

// GetDamage retrieves a damage by code. Returns nil if it does not exist.
func (db *DB) GetDamage(ctx context.Context, code string) (*models.Damage, error) {
	var d models.Damage
	err := db.pool.QueryRow(ctx, `SELECT `+damageColumns+` FROM damages WHERE code = $1`, code).
		Scan(&d.Code, &d.Name, &d.PriorProbability, &d.RepairCost, &d.RepairTime, &d.Severity, &d.Remedy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Symptoms returns every symptom ordered by code, with its mass function
// assembled from symptom_masses.
func (db *DB) Symptoms(ctx context.Context) ([]models.Symptom, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT s.code, s.name, s.category, s.device_type, m.damage_code, m.mass
		 FROM symptoms s
		 LEFT JOIN symptom_masses m ON m.symptom_code = s.code
		 ORDER BY s.code, m.damage_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptoms: %w", err)
	}
	defer rows.Close()

	symptoms := []models.Symptom{}
	for rows.Next() {
		var s models.Symptom
		var damage *string
		var mass *float64
		if err := rows.Scan(&s.Code, &s.Name, &s.Category, &s.DeviceType, &damage, &mass); err != nil {
			return nil, err
		}

		if n := len(symptoms); n == 0 || symptoms[n-1].Code != s.Code {
			s.MassFunction = map[string]float64{}
			symptoms = append(symptoms, s)
		}
		if damage != nil && mass != nil {
			symptoms[len(symptoms)-1].MassFunction[*damage] = *mass
		}
	}
	return symptoms, rows.Err()
}
