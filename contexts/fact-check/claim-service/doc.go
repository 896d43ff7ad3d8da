// Package claimservice implements claim intake inside the fact-check context.
//
// The module owns claim submission (submitter upsert on first wallet
// sighting, submission fee charge, voting-window stamping) and claim reads
// for browse/admin surfaces. Business rules stay in application/domain
// layers; infrastructure sits behind ports and adapters.
package claimservice
