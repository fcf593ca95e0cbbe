package domain

// KeyPrefix namespaces all equipcat keys in the document database.
const KeyPrefix = "equipcat:"
