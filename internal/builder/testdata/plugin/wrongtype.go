package main

var ProjectEntry = 42
