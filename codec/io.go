package codec

// Teltonika I/O element ids used by the record normalizer. See the
// Teltonika AVL I/O element catalog for the authoritative width of each
// id; these two are the ones this gateway projects into the outbound
// schema.
const (
	IOOdometer uint16 = 199 // total odometer, meters, width-4 element
	IOIgnition uint16 = 239 // ignition state, width-1 element (0/1)
)

// Lookup returns the fixed-width value of the first I/O element with the
// given id, if present.
func (r AVLRecord) Lookup(id uint16) (uint64, bool) {
	for _, e := range r.IOElements {
		if e.ID == id && e.Width != 0 {
			return e.Value, true
		}
	}
	return 0, false
}
