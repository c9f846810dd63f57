package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/flockmap/flock-cli/internal/db"
	"github.com/flockmap/flock-cli/internal/geometry"
	"github.com/flockmap/flock-cli/internal/model"
	"github.com/flockmap/flock-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	err = resilience.Do(ctx, resilience.DefaultRetryConfig(), "postgres ping", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS groups (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	color        TEXT NOT NULL,
	requirements TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS families (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS persons (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	group_id   TEXT REFERENCES groups(id) ON DELETE SET NULL,
	family_id  TEXT REFERENCES families(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS meetings (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lng        DOUBLE PRECISION NOT NULL,
	group_id   TEXT REFERENCES groups(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_persons_group_id ON persons(group_id);
CREATE INDEX IF NOT EXISTS idx_meetings_group_id ON meetings(group_id);
CREATE INDEX IF NOT EXISTS idx_persons_family_id ON persons(family_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p *model.Person) error {
	if err := model.ValidateLocation(p.Location); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO persons (id, name, lat, lng, group_id, family_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Location.Lat, p.Location.Lng, nullable(p.GroupID), nullable(p.FamilyID), now, now,
	)
	return eris.Wrap(err, "postgres: insert person")
}

func (s *PostgresStore) UpdatePersonLocation(ctx context.Context, personID string, loc geometry.Point) error {
	if err := model.ValidateLocation(loc); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE persons SET lat = $1, lng = $2, updated_at = now() WHERE id = $3`,
		loc.Lat, loc.Lng, personID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update person location %s", personID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: person %s not found", personID)
	}
	return nil
}

func (s *PostgresStore) AssignPersonGroup(ctx context.Context, personID, groupID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE persons SET group_id = $1, updated_at = now() WHERE id = $2`,
		nullable(groupID), personID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: assign person %s to group %s", personID, groupID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: person %s not found", personID)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, personID string) (*model.Person, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, lat, lng, COALESCE(group_id, ''), COALESCE(family_id, ''), created_at, updated_at
		 FROM persons WHERE id = $1`,
		personID,
	)
	var p model.Person
	err := row.Scan(&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lng, &p.GroupID, &p.FamilyID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: person %s not found", personID)
		}
		return nil, eris.Wrapf(err, "postgres: get person %s", personID)
	}
	return &p, nil
}

func (s *PostgresStore) ListPersons(ctx context.Context) ([]model.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, lat, lng, COALESCE(group_id, ''), COALESCE(family_id, ''), created_at, updated_at
		 FROM persons ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list persons")
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lng, &p.GroupID, &p.FamilyID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan person")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate persons")
}

func (s *PostgresStore) CreateMeeting(ctx context.Context, m *model.MeetingPoint) error {
	if err := model.ValidateLocation(m.Location); err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO meetings (id, name, lat, lng, group_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.Name, m.Location.Lat, m.Location.Lng, nullable(m.GroupID), now, now,
	)
	return eris.Wrap(err, "postgres: insert meeting")
}

// CreateMeetings bulk-inserts meeting points over the COPY protocol.
func (s *PostgresStore) CreateMeetings(ctx context.Context, ms []*model.MeetingPoint) error {
	if len(ms) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(ms))
	for _, m := range ms {
		if err := model.ValidateLocation(m.Location); err != nil {
			return err
		}
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.CreatedAt, m.UpdatedAt = now, now
		rows = append(rows, []any{m.ID, m.Name, m.Location.Lat, m.Location.Lng, nullable(m.GroupID), now, now})
	}

	_, err := db.CopyFrom(ctx, s.pool, "meetings",
		[]string{"id", "name", "lat", "lng", "group_id", "created_at", "updated_at"}, rows)
	return err
}

func (s *PostgresStore) ListMeetings(ctx context.Context) ([]model.MeetingPoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, lat, lng, COALESCE(group_id, ''), created_at, updated_at FROM meetings ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list meetings")
	}
	defer rows.Close()

	var out []model.MeetingPoint
	for rows.Next() {
		var m model.MeetingPoint
		if err := rows.Scan(&m.ID, &m.Name, &m.Location.Lat, &m.Location.Lng, &m.GroupID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan meeting")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate meetings")
}

func (s *PostgresStore) CreateGroup(ctx context.Context, g *model.Group) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.Color == "" {
		g.Color = model.DefaultGroupColor
	}
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO groups (id, name, color, requirements, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.Name, g.Color, g.Requirements, now, now,
	)
	return eris.Wrap(err, "postgres: insert group")
}

func (s *PostgresStore) UpdateGroup(ctx context.Context, g *model.Group) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE groups SET name = $1, color = $2, requirements = $3, updated_at = now() WHERE id = $4`,
		g.Name, g.Color, g.Requirements, g.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update group %s", g.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: group %s not found", g.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteGroup(ctx context.Context, groupID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete group %s", groupID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: group %s not found", groupID)
	}
	return nil
}

func (s *PostgresStore) GetGroup(ctx context.Context, groupID string) (*model.Group, error) {
	var g model.Group
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, color, requirements, created_at, updated_at FROM groups WHERE id = $1`,
		groupID,
	).Scan(&g.ID, &g.Name, &g.Color, &g.Requirements, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: group %s not found", groupID)
		}
		return nil, eris.Wrapf(err, "postgres: get group %s", groupID)
	}
	return &g, nil
}

func (s *PostgresStore) ListGroups(ctx context.Context) ([]model.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, color, requirements, created_at, updated_at FROM groups ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list groups")
	}
	defer rows.Close()

	var out []model.Group
	for rows.Next() {
		var g model.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Color, &g.Requirements, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan group")
		}
		out = append(out, g)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate groups")
}

func (s *PostgresStore) CreateFamily(ctx context.Context, f *model.Family) error {
	if err := model.ValidateLocation(f.Location); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO families (id, name, lat, lng, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Name, f.Location.Lat, f.Location.Lng, now, now,
	)
	return eris.Wrap(err, "postgres: insert family")
}

func (s *PostgresStore) ListFamilies(ctx context.Context) ([]model.Family, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, lat, lng, created_at, updated_at FROM families ORDER BY created_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list families")
	}
	defer rows.Close()

	var out []model.Family
	for rows.Next() {
		var f model.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.Location.Lat, &f.Location.Lng, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan family")
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate families")
}

// GroupPoints returns the union of a group's member and meeting-point
// locations in stable creation order.
func (s *PostgresStore) GroupPoints(ctx context.Context, groupID string) ([]geometry.Point, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lat, lng, created_at FROM persons WHERE group_id = $1
		 UNION ALL
		 SELECT lat, lng, created_at FROM meetings WHERE group_id = $1
		 ORDER BY created_at`,
		groupID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: points for group %s", groupID)
	}
	defer rows.Close()

	var out []geometry.Point
	for rows.Next() {
		var p geometry.Point
		var createdAt time.Time
		if err := rows.Scan(&p.Lat, &p.Lng, &createdAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan group point")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate group points")
}

func (s *PostgresStore) GroupColor(ctx context.Context, groupID string) (string, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	return g.Color, nil
}

func (s *PostgresStore) ListGroupIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM groups ORDER BY created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list group ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan group id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: iterate group ids")
}
