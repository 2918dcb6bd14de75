// Package voting holds the pure vote arithmetic shared by the API server and
// the client-side store: tallying persisted rows, planning a tri-state
// toggle, splitting votes by voter gender and summarizing a dashboard.
//
// Nothing here touches the network or the database. Callers map their rows
// into Ballot or GenderedBallot first.
package voting
