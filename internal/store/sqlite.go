package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS groups (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	color        TEXT NOT NULL,
	requirements TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS persons (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	group_id   TEXT REFERENCES groups(id) ON DELETE SET NULL,
	family_id  TEXT REFERENCES families(id) ON DELETE SET NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS meetings (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	group_id   TEXT REFERENCES groups(id) ON DELETE SET NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS families (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_persons_group_id ON persons(group_id);
CREATE INDEX IF NOT EXISTS idx_meetings_group_id ON meetings(group_id);
CREATE INDEX IF NOT EXISTS idx_persons_family_id ON persons(family_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreatePerson(ctx context.Context, p *model.Person) error {
	if err := model.ValidateLocation(p.Location); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persons (id, name, lat, lng, group_id, family_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Location.Lat, p.Location.Lng, nullable(p.GroupID), nullable(p.FamilyID), now, now,
	)
	return eris.Wrap(err, "sqlite: insert person")
}

func (s *SQLiteStore) UpdatePersonLocation(ctx context.Context, personID string, loc geometry.Point) error {
	if err := model.ValidateLocation(loc); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET lat = ?, lng = ?, updated_at = ? WHERE id = ?`,
		loc.Lat, loc.Lng, time.Now().UTC(), personID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update person location %s", personID)
	}
	return checkRowsAffected(res, "person", personID)
}

func (s *SQLiteStore) AssignPersonGroup(ctx context.Context, personID, groupID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET group_id = ?, updated_at = ? WHERE id = ?`,
		nullable(groupID), time.Now().UTC(), personID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: assign person %s to group %s", personID, groupID)
	}
	return checkRowsAffected(res, "person", personID)
}

func (s *SQLiteStore) GetPerson(ctx context.Context, personID string) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, lat, lng, group_id, family_id, created_at, updated_at FROM persons WHERE id = ?`,
		personID,
	)
	p, err := scanPerson(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: person %s not found", personID)
		}
		return nil, eris.Wrapf(err, "sqlite: get person %s", personID)
	}
	return p, nil
}

func (s *SQLiteStore) ListPersons(ctx context.Context) ([]model.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, group_id, family_id, created_at, updated_at FROM persons ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list persons")
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan person")
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate persons")
}

func (s *SQLiteStore) CreateMeeting(ctx context.Context, m *model.MeetingPoint) error {
	if err := model.ValidateLocation(m.Location); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, name, lat, lng, group_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Location.Lat, m.Location.Lng, nullable(m.GroupID), now, now,
	)
	return eris.Wrap(err, "sqlite: insert meeting")
}

// CreateMeetings inserts a batch of meeting points in one transaction.
func (s *SQLiteStore) CreateMeetings(ctx context.Context, ms []*model.MeetingPoint) error {
	if len(ms) == 0 {
		return nil
	}
	for _, m := range ms {
		if err := model.ValidateLocation(m.Location); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin batch insert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO meetings (id, name, lat, lng, group_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare batch insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range ms {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.CreatedAt, m.UpdatedAt = now, now
		if _, err := stmt.ExecContext(ctx, m.ID, m.Name, m.Location.Lat, m.Location.Lng, nullable(m.GroupID), now, now); err != nil {
			return eris.Wrapf(err, "sqlite: batch insert meeting %s", m.Name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit batch insert")
}

func (s *SQLiteStore) ListMeetings(ctx context.Context) ([]model.MeetingPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, group_id, created_at, updated_at FROM meetings ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list meetings")
	}
	defer rows.Close()

	var out []model.MeetingPoint
	for rows.Next() {
		var m model.MeetingPoint
		var groupID sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.Location.Lat, &m.Location.Lng, &groupID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan meeting")
		}
		m.GroupID = groupID.String
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate meetings")
}

func (s *SQLiteStore) CreateGroup(ctx context.Context, g *model.Group) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Color == "" {
		g.Color = model.DefaultGroupColor
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, color, requirements, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Color, g.Requirements, now, now,
	)
	return eris.Wrap(err, "sqlite: insert group")
}

func (s *SQLiteStore) UpdateGroup(ctx context.Context, g *model.Group) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, color = ?, requirements = ?, updated_at = ? WHERE id = ?`,
		g.Name, g.Color, g.Requirements, time.Now().UTC(), g.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update group %s", g.ID)
	}
	return checkRowsAffected(res, "group", g.ID)
}

func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, groupID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete group %s", groupID)
	}
	return checkRowsAffected(res, "group", groupID)
}

func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*model.Group, error) {
	var g model.Group
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, requirements, created_at, updated_at FROM groups WHERE id = ?`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.Color, &g.Requirements, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Errorf("sqlite: group %s not found", groupID)
		}
		return nil, eris.Wrapf(err, "sqlite: get group %s", groupID)
	}
	return &g, nil
}

func (s *SQLiteStore) ListGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, requirements, created_at, updated_at FROM groups ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list groups")
	}
	defer rows.Close()

	var out []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Color, &g.Requirements, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan group")
		}
		out = append(out, g)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate groups")
}

func (s *SQLiteStore) CreateFamily(ctx context.Context, f *model.Family) error {
	if err := model.ValidateLocation(f.Location); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO families (id, name, lat, lng, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Location.Lat, f.Location.Lng, now, now,
	)
	return eris.Wrap(err, "sqlite: insert family")
}

func (s *SQLiteStore) ListFamilies(ctx context.Context) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, created_at, updated_at FROM families ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list families")
	}
	defer rows.Close()

	var out []model.Family
	for rows.Next() {
		var f model.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.Location.Lat, &f.Location.Lng, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan family")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate families")
}

// GroupPoints returns the union of a group's member and meeting-point
// locations in stable creation order.
func (s *SQLiteStore) GroupPoints(ctx context.Context, groupID string) ([]geometry.Point, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lat, lng, created_at FROM persons WHERE group_id = ?
		 UNION ALL
		 SELECT lat, lng, created_at FROM meetings WHERE group_id = ?
		 ORDER BY created_at`,
		groupID, groupID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: points for group %s", groupID)
	}
	defer rows.Close()

	var out []geometry.Point
	for rows.Next() {
		var p geometry.Point
		var createdAt time.Time
		if err := rows.Scan(&p.Lat, &p.Lng, &createdAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan group point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate group points")
}

func (s *SQLiteStore) GroupColor(ctx context.Context, groupID string) (string, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	return g.Color, nil
}

func (s *SQLiteStore) ListGroupIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM groups ORDER BY created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list group ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan group id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: iterate group ids")
}

// scanPerson reads a person row from either QueryRow or Rows.
func scanPerson(row interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	var groupID, familyID sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lng, &groupID, &familyID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.GroupID = groupID.String
	p.FamilyID = familyID.String
	return &p, nil
}

// nullable maps empty strings to NULL so foreign keys stay clean.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// checkRowsAffected turns a zero-row update into a not-found error.
func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}
