package netaccesstest

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"
)

// Session represents a browser session of the fake portal
type Session struct {
	Token    string
	Username string
}

// Authenticated returns whether a user logged in using this session
func (session *Session) Authenticated() bool {
	return session.Username != ""
}

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"sessions": {
			Name: "sessions",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:         "id",
					Unique:       true,
					AllowMissing: false,
					Indexer:      &memdb.StringFieldIndex{Field: "Token"},
				},
				"username": {
					Name:         "username",
					Unique:       false,
					AllowMissing: true,
					Indexer:      &memdb.StringFieldIndex{Field: "Username"},
				},
			},
		},
	},
}

// sessionStore keeps the fake portal's sessions in a hashicorp/go-memdb database
type sessionStore struct {
	db *memdb.MemDB
}

func newSessionStore() (*sessionStore, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &sessionStore{db}, nil
}

// get retrieves a session by its token; unknown tokens yield nil
func (store *sessionStore) get(token string) (*Session, error) {
	txn := store.db.Txn(false)
	obj, err := txn.First("sessions", "id", token)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}
	return obj.(*Session), nil
}

// create creates a new anonymous session
func (store *sessionStore) create() (*Session, error) {
	ses := &Session{Token: uuid.NewString()}

	txn := store.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert("sessions", ses); err != nil {
		return nil, err
	}
	txn.Commit()
	return ses, nil
}

// authenticate binds a user to a fresh session and terminates the anonymous one it replaces
func (store *sessionStore) authenticate(token, username string) (*Session, error) {
	ses := &Session{Token: uuid.NewString(), Username: username}

	txn := store.db.Txn(true)
	defer txn.Abort()
	if _, err := txn.DeleteAll("sessions", "id", token); err != nil {
		return nil, err
	}
	if err := txn.Insert("sessions", ses); err != nil {
		return nil, err
	}
	txn.Commit()
	return ses, nil
}

// countAuthenticated returns the amount of sessions bound to a user
func (store *sessionStore) countAuthenticated(username string) (int, error) {
	txn := store.db.Txn(false)
	it, err := txn.Get("sessions", "username", username)
	if err != nil {
		return 0, err
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n, nil
}
