// Package files provides file system discovery and write helpers for the
// dashboard's data and export directories.
//
// Discovery resolves the dataset among a list of candidate paths and lists
// data files in a directory. Manager writes exports atomically. Both work
// relative to a base path.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/srv/dashboard")
//	fi, err := discovery.Resolve([]string{"data/companies.csv", "companies.csv"})
//
//	manager := files.NewManager("/srv/dashboard")
//	err = manager.WriteAtomic("exports/leads.csv", func(w io.Writer) error {
//	    return writer.WriteLeads(w, leads)
//	})
package files
