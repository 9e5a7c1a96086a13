// Copyright 2025 Quorial Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Seeder populates a fresh database with a demo project and a few
// documents so the chat and search commands have something to work
// against. Expects an OpenAI-compatible service and a pgvector
// database to be reachable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/quorial/grounddesk"
	"github.com/quorial/grounddesk/ai"
	"github.com/quorial/grounddesk/core"
)

const rfpText = `Request for Proposal: Field Operations Platform

The client requires a platform for coordinating field maintenance crews
across three regions. Work orders must be dispatched to crews within
five minutes of creation. The platform must operate on-premise; no
customer data may leave the client's network.

Offline operation is mandatory: crews work in areas without coverage
and the mobile client must queue updates locally until connectivity
returns. All data exchanges must be encrypted in transit and at rest.

Vendors must describe their approach to migration from the legacy
dispatch system, including a parallel-running period of at least one
quarter. Support response time for critical incidents must not exceed
two hours.`

const proposalText = `Proposal: Field Operations Platform

Our solution deploys entirely within the client's data center as a set
of containers managed by the client's existing orchestration tooling.
Dispatch latency in reference installations averages forty seconds from
work order creation to crew notification.

The mobile client maintains a local journal of all crew actions and
reconciles with the server opportunistically. Conflicts are resolved
by server-side timestamps with a review queue for manual overrides.

Migration follows our standard dual-write approach: the legacy dispatch
system remains authoritative during the first quarter while the new
platform shadows all traffic. Critical incident response is staffed
around the clock with a ninety-minute contractual ceiling.`

const notesText = `Internal notes, kickoff call

Client emphasized the offline requirement twice; their previous vendor
failed acceptance testing in the mountain region. Budget holder is the
operations director, not IT. Decision expected before the end of the
quarter. Competitor is believed to be bidding a cloud-only solution,
which conflicts with the on-premise requirement.`

var (
	dbPath         = flag.String("db", "grounddesk.db", "path to database directory")
	documentRoot   = flag.String("documents", "documents", "directory for uploaded files")
	vectorDSN      = flag.String("dsn", os.Getenv("GROUNDDESK_VECTOR_DSN"), "pgvector connection string")
	host           = flag.String("host", "", "OpenAI-compatible API host")
	embeddingModel = flag.String("embedding-model", "", "embedding model name")
	workers        = flag.Int("workers", 4, "worker pool size")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	ctx := context.Background()

	var configOpts []ai.ConfigOption
	if *host != "" {
		configOpts = append(configOpts, ai.WithHost(*host))
	}
	if *embeddingModel != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(*embeddingModel))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		configOpts = append(configOpts, ai.WithAPIKey(key))
	}

	desk, err := grounddesk.NewDesk(ctx, *dbPath, *documentRoot,
		grounddesk.WithAIConfig(ai.NewConfig(configOpts...)),
		grounddesk.WithVectorDSN(*vectorDSN),
		grounddesk.WithWorkers(*workers))
	if err != nil {
		panic(err)
	}
	defer desk.Close()

	project := &core.Project{
		ID:               core.NewID(),
		Name:             "Field Operations Platform",
		Description:      "Demo tender data",
		MaxContextTokens: 100000,
	}
	if err := desk.Store().CreateProject(ctx, project); err != nil {
		panic(err)
	}
	fmt.Printf("Project: %s\n", project.ID)

	seed := []struct {
		filename     string
		documentType string
		content      string
	}{
		{"rfp-field-operations.txt", "rfp", rfpText},
		{"proposal-field-operations.txt", "proposal", proposalText},
		{"kickoff-notes.txt", "other", notesText},
	}

	for _, s := range seed {
		document, admission, err := desk.Pipeline().Admit(ctx, project.ID,
			s.filename, s.documentType, strings.NewReader(s.content))
		if err != nil {
			panic(err)
		}
		if !admission.Allowed {
			panic(fmt.Sprintf("upload rejected: %s", admission.Reason))
		}
		fmt.Printf("Uploaded %s as %s\n", s.filename, document.ID)
	}

	desk.Drain()

	report, err := desk.Tracker().Report(ctx, project.ID)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Seeded %d document tokens (%.1f%% of budget)\n",
		report.DocumentTokens, report.UsedPercent)
}
