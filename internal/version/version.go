package version

// Int is incremented whenever generated output changes for the same input.
const Int = 1
