package orm_test

import (
	"context"
	"database/sql"
	"fmt"

	orm "github.com/encode/orm"
	"github.com/encode/orm/gateway/sqlgateway"
	"github.com/encode/orm/schema"
)

func Example() {
	var db *sql.DB // opened by the application

	registry, err := orm.NewRegistry(orm.Config{
		Gateway: sqlgateway.New(db),
	})
	if err != nil {
		panic(err)
	}

	albums, err := registry.Register("Album",
		schema.Integer("id", schema.PrimaryKey()),
		schema.String("name", 100),
	)
	if err != nil {
		panic(err)
	}

	tracks, err := registry.Register("Track",
		schema.Integer("id", schema.PrimaryKey()),
		schema.ForeignKey("album", "Album"),
		schema.String("title", 100),
		schema.Integer("position"),
	)
	if err != nil {
		panic(err)
	}
	if err := registry.Resolve(); err != nil {
		panic(err)
	}

	ctx := context.Background()

	album, err := albums.Objects().Create(ctx, orm.Values{"name": "Revolver"})
	if err != nil {
		panic(err)
	}

	_, err = tracks.Objects().Create(ctx, orm.Values{
		"album":    album,
		"title":    "Taxman",
		"position": 1,
	})
	if err != nil {
		panic(err)
	}

	// Chains are lazy; only All touches the database.
	recent, err := tracks.Objects().
		Filter(orm.Values{"album__name": "Revolver"}).
		OrderBy("position").
		All(ctx)
	if err != nil {
		panic(err)
	}

	for _, track := range recent {
		title, _ := track.Attr("title")
		fmt.Println(title)
	}
}
