// Package network builds the company/city graph of a filtered view and ranks
// its nodes by betweenness centrality.
package network
