package internal

// Version is the bilingual release version
const Version = "0.3.0"
