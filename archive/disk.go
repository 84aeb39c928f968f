// Package archive persists synthesized circuits to sqlite files.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fumin/tensor"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/fumin/qprep/circuit"
)

const (
	tableRegister = "register"
	tableQubit    = "q"
	tableUnitary  = "u"

	regAncilla  = "ancilla"
	regPhysical = "physical"
)

// Save writes the circuit to a sqlite file at path, replacing any previous
// content. Zero unitary entries are elided.
func Save(path string, c *circuit.Circuit) error {
	db, err := newDB(path)
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err1 := save(db, c); err1 != nil && err == nil {
		err = err1
	}
	if err1 := db.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func save(db *sql.DB, c *circuit.Circuit) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (name, size) VALUES (?, ?)`, tableRegister)
	for _, reg := range []struct {
		name string
		size int
	}{{regAncilla, c.AncillaLen}, {regPhysical, c.PhysicalLen}} {
		if _, err := db.ExecContext(ctx, sqlStr, reg.name, reg.size); err != nil {
			return errors.Wrap(err, reg.name)
		}
	}

	qubitStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (gi, k, qubit) VALUES (?, ?, ?)`, tableQubit)
	uStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (gi, i, j, re, im) VALUES (?, ?, ?, ?, ?)`, tableUnitary)
	for gi, g := range c.Gates {
		for k, qubit := range g.Qubits {
			if _, err := db.ExecContext(ctx, qubitStr, gi, k, qubit); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%d %d", gi, k))
			}
		}

		for ij, v := range g.U.All() {
			if v == 0 {
				continue
			}
			args := []any{gi, ij[0], ij[1], real(v), imag(v)}
			if _, err := db.ExecContext(ctx, uStr, args...); err != nil {
				return errors.Wrap(err, fmt.Sprintf("%d %#v", gi, ij))
			}
		}
	}
	return nil
}

// Load reads back a circuit written by Save.
func Load(path string) (*circuit.Circuit, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer db.Close()

	c, err := load(db)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return c, nil
}

func load(db *sql.DB) (*circuit.Circuit, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	c := &circuit.Circuit{}
	sqlStr := fmt.Sprintf(`SELECT size FROM %s WHERE name=?`, tableRegister)
	if err := db.QueryRowContext(ctx, sqlStr, regAncilla).Scan(&c.AncillaLen); err != nil {
		return nil, errors.Wrap(err, regAncilla)
	}
	if err := db.QueryRowContext(ctx, sqlStr, regPhysical).Scan(&c.PhysicalLen); err != nil {
		return nil, errors.Wrap(err, regPhysical)
	}

	if err := loadQubits(ctx, db, c); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := loadUnitaries(ctx, db, c); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return c, nil
}

func loadQubits(ctx context.Context, db *sql.DB, c *circuit.Circuit) error {
	sqlStr := fmt.Sprintf(`SELECT gi, k, qubit FROM %s ORDER BY gi, k`, tableQubit)
	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer rows.Close()

	for rows.Next() {
		var gi, k, qubit int
		if err := rows.Scan(&gi, &k, &qubit); err != nil {
			return errors.Wrap(err, "")
		}
		switch {
		case gi == len(c.Gates) && k == 0:
			c.Gates = append(c.Gates, circuit.GateOp{})
		case gi != len(c.Gates)-1 || k != len(c.Gates[gi].Qubits):
			return errors.Errorf("%d %d", gi, k)
		}
		g := &c.Gates[gi]
		g.Qubits = append(g.Qubits, qubit)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "")
	}

	for gi := range c.Gates {
		dim := 1 << len(c.Gates[gi].Qubits)
		c.Gates[gi].U = tensor.Zeros(dim, dim)
	}
	return nil
}

func loadUnitaries(ctx context.Context, db *sql.DB, c *circuit.Circuit) error {
	sqlStr := fmt.Sprintf(`SELECT gi, i, j, re, im FROM %s ORDER BY gi, i, j`, tableUnitary)
	rows, err := db.QueryContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer rows.Close()

	for rows.Next() {
		var gi, i, j int
		var re, im float32
		if err := rows.Scan(&gi, &i, &j, &re, &im); err != nil {
			return errors.Wrap(err, "")
		}
		if gi < 0 || gi >= len(c.Gates) {
			return errors.Errorf("%d %d", gi, len(c.Gates))
		}
		c.Gates[gi].U.SetAt([]int{i, j}, complex(re, im))
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func newDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}

	return db, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableRegister),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableQubit),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableUnitary),
		fmt.Sprintf(`CREATE TABLE %s (name TEXT, size INTEGER, PRIMARY KEY (name)) STRICT`, tableRegister),
		fmt.Sprintf(`CREATE TABLE %s (gi INTEGER, k INTEGER, qubit INTEGER, PRIMARY KEY (gi, k)) STRICT`, tableQubit),
		fmt.Sprintf(`CREATE TABLE %s (gi INTEGER, i INTEGER, j INTEGER, re REAL, im REAL, PRIMARY KEY (gi, i, j)) STRICT`, tableUnitary),
	}
	for _, sqlStr := range stmts {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}
