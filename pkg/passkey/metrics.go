// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package passkey

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passkey",
		Name:      "registrations_total",
		Help:      "Registration ceremony completions by result.",
	}, []string{"result"})

	authentications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passkey",
		Name:      "authentications_total",
		Help:      "Authentication ceremony completions by result.",
	}, []string{"result"})

	challengesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passkey",
		Name:      "challenges_issued_total",
		Help:      "Challenges issued by ceremony purpose.",
	}, []string{"purpose"})
)
