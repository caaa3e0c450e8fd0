package main

var Other = 1
