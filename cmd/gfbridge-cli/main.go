package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/goliatone/go-gfbridge/internal/config"
	"github.com/goliatone/go-gfbridge/pkg/fields"
	"github.com/goliatone/go-gfbridge/pkg/model"
	"github.com/goliatone/go-gfbridge/pkg/prompt"
	"github.com/goliatone/go-gfbridge/pkg/submission"
	"github.com/goliatone/go-gfbridge/pkg/wpgraphql"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	formID := flag.Int("form", cfg.DefaultFormID, "Gravity Forms form id")
	bridge := flag.String("bridge", "http://localhost"+cfg.Addr(), "base URL of a running gfbridge server")
	attempts := flag.Int("attempts", prompt.DefaultMaxAttempts, "submission attempts before giving up")
	yes := flag.Bool("yes", false, "submit without asking for confirmation")
	flag.Parse()

	if *formID <= 0 {
		log.Fatalf("a form id is required (-form or %s)", config.EnvDefaultFormID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := wpgraphql.New(wpgraphql.WithURL(cfg.WordPressURL))
	schema, err := client.FormFields(ctx, *formID)
	if err != nil {
		log.Fatalf("load form %d: %v", *formID, err)
	}
	contactFields := fields.MapFields(schema.Fields)
	if len(contactFields) == 0 {
		log.Fatalf("form %d has no supported fields", *formID)
	}

	base := strings.TrimRight(*bridge, "/")
	session := submission.NewSession(*formID,
		submission.WithSubmitEndpoint(base+"/api/gravity-submit"),
		submission.WithSchemaEndpoint(base+"/api/gravity-forms"),
	)
	if _, err := session.LoadForm(ctx); err != nil {
		log.Printf("confirmation defaults unavailable: %v", err)
	}

	if schema.Title != "" {
		fmt.Println(schema.Title)
		fmt.Println()
	}

	fillerOpts := []prompt.FillerOption{prompt.WithMaxAttempts(*attempts)}
	if *yes {
		fillerOpts = append(fillerOpts, prompt.WithoutConfirm())
	}
	filler := prompt.NewFiller(prompt.NewSurveyDriver(os.Stdout), fillerOpts...)

	outcome, err := filler.Fill(ctx, contactFields, session)
	switch {
	case errors.Is(err, prompt.ErrCancelled), errors.Is(err, prompt.ErrAborted):
		fmt.Println("Cancelled.")
		os.Exit(1)
	case err != nil:
		log.Fatalf("submit: %v", err)
	}
	if outcome.Kind != model.OutcomeSuccess {
		os.Exit(1)
	}
}
