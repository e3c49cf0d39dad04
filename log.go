package tmplc

import "github.com/juju/loggo"

// logger is the package-wide loggo logger. The teacher's go.mod declared
// juju/loggo as an indirect dependency without ever importing it; here it
// backs the VM's label-rescan/fatal-instruction trace and the driver's
// output-path resolution log.
var logger = loggo.GetLogger("tmplc")
