package main

import (
	"flag"
	"net/http"

	"github.com/gin-gonic/gin"

	"motorhub/internal/ingest"
	"motorhub/pkg/logging"
)

// feed-mirror serves a dealer CSV as the paginated JSON inventory feed, so
// the json source can be exercised locally without a real dealer endpoint.
func main() {
	var (
		csvPath  = flag.String("csv", "data/inventory.csv", "dealer CSV to serve")
		addr     = flag.String("addr", ":9000", "listen address")
		pageSize = flag.Int("page-size", 50, "items per page")
		level    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log := logging.New(logging.Config{Level: *level, Format: "console", ServiceName: "feed-mirror"})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinMiddleware(log))
	router.GET("/inventory", ingest.MirrorHandler(ingest.NewCSVSource("mirror", *csvPath), *pageSize, log))

	log.Info().Str("addr", *addr).Str("csv", *csvPath).Msg("feed mirror listening")
	if err := http.ListenAndServe(*addr, router); err != nil {
		log.Fatal().Err(err).Msg("feed mirror stopped")
	}
}
