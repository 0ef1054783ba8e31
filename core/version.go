package core

const Version = "0.4.0"
