// Kosovo COVID-19 Tracker - Pandemic Statistics API and Automation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kosovo-covid

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

	RootSupervisor ("kosovo-covid")
	├── DataSupervisor ("data-layer")
	│   └── CheckpointService
	├── AutomationSupervisor ("automation-layer")
	│   └── SchedulerService (when automation is enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff; a layer's failures are
counted independently of the others. Supervisor events are logged through
sutureslog into the zerolog-backed slog handler.

Usage in main.go:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewCheckpointService(db, 5*time.Minute))
	tree.AddAutomationService(services.NewSchedulerService(scheduler))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
