package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/memorial/internal/dbx"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/carousel"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/photos"
	"github.com/dmitrijs2005/memorial/internal/server/repositories/submissions"
)

// RepositoryManager vends repositories bound to a connection or transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Submissions(db dbx.DBTX) submissions.Repository
	Photos(db dbx.DBTX) photos.Repository
	Carousel(db dbx.DBTX) carousel.Repository
}
